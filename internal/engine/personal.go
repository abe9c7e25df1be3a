package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastobot/gastobot/internal/category"
	"github.com/gastobot/gastobot/internal/gateway"
	"github.com/gastobot/gastobot/internal/models"
	"github.com/gastobot/gastobot/internal/oracle"
	"github.com/gastobot/gastobot/internal/parser"
)

// handlePersonal runs the personal-mode pipeline. Unlike group mode there is
// no confirmation round trip: the user is only spending their own money, so
// a wrong guess is cheap to fix and a question on every message is not.
func (e *Engine) handlePersonal(ctx context.Context, user *models.Participant, msg gateway.Message) error {
	switch msg.MediaKind {
	case gateway.MediaImage, gateway.MediaDocument:
		return e.handleReceipt(ctx, user, msg)
	case gateway.MediaAudio:
		transcribed, err := e.transcribe(ctx, msg)
		if err != nil {
			e.reply(ctx, user.Phone, "No pude entender el audio, probá escribiendo el gasto.")
			return nil
		}
		return e.processPersonalText(ctx, user, transcribed, transcribed)
	}
	return e.processPersonalText(ctx, user, msg.Text, "")
}

func (e *Engine) processPersonalText(ctx context.Context, user *models.Participant, text, transcription string) error {
	trimmed := strings.TrimSpace(text)

	switch strings.ToLower(trimmed) {
	case "ayuda", "help":
		e.reply(ctx, user.Phone, replyPersonalHelp)
		return nil
	case "categorias", "categorías":
		return e.handleCategories(ctx, user)
	case "resumen":
		return e.handleSummary(ctx, user)
	case "fijos":
		return e.handleRecurrents(ctx, user)
	case "analisis", "análisis":
		return e.handleAnalysis(ctx, user)
	}

	categories, err := e.ensureCategories(ctx, user)
	if err != nil {
		return err
	}

	if parsed := parser.ParsePersonal(trimmed); parsed != nil {
		matched := category.MatchOrDefault(firstNonEmpty(parsed.Category, parsed.Title), categories)
		payment := &models.PersonalPayment{
			OwnerID:       user.ID,
			Title:         parsed.Title,
			Description:   parsed.Description,
			Amount:        parsed.Amount,
			IsPaid:        true,
			PaidAt:        time.Now().Unix(),
			Source:        "parser",
			Transcription: transcription,
		}
		if matched != nil {
			payment.CategoryID = matched.ID
		}
		return e.commitPersonal(ctx, user, payment, matched)
	}

	if e.cfg.OracleEnabled {
		handled, err := e.tryOraclePersonal(ctx, user, trimmed, transcription, categories)
		if handled || err != nil {
			return err
		}
	}

	e.reply(ctx, user.Phone, replyPersonalUnparseable)
	return nil
}

// tryOraclePersonal interprets free text through the model and commits
// confident expense extractions directly.
func (e *Engine) tryOraclePersonal(ctx context.Context, user *models.Participant, text, transcription string, categories []*models.Category) (bool, error) {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}

	result, err := e.oracle.ExtractPersonalMessage(ctx, text, names)
	if err != nil {
		oracleRequestsTotal.WithLabelValues("error").Inc()
		e.log.Warn("model extraction failed, falling back", "error", err)
		return false, nil
	}
	oracleRequestsTotal.WithLabelValues(string(result.Type)).Inc()

	switch result.Type {
	case oracle.TypeExpense:
		if result.Confidence < e.cfg.OracleThreshold || !result.Amount.IsPositive() {
			return false, nil
		}
		amount := result.Amount
		if result.Currency != "" && result.Currency != e.cfg.HomeCurrency {
			if converted, rate := e.rates.Convert(ctx, result.Amount, result.Currency); !rate.IsZero() {
				amount = converted
			}
		}
		matched := category.MatchOrDefault(firstNonEmpty(result.Category, result.Description), categories)
		payment := &models.PersonalPayment{
			OwnerID:       user.ID,
			Title:         capitalizeTitle(firstNonEmpty(result.Description, text)),
			Amount:        amount,
			IsPaid:        true,
			PaidAt:        time.Now().Unix(),
			Source:        "oracle",
			Transcription: transcription,
		}
		if matched != nil {
			payment.CategoryID = matched.ID
		}
		return true, e.commitPersonal(ctx, user, payment, matched)
	case oracle.TypeCommand:
		switch result.Command {
		case "summary":
			return true, e.handleSummary(ctx, user)
		case "recurrents":
			return true, e.handleRecurrents(ctx, user)
		case "help":
			e.reply(ctx, user.Phone, replyPersonalHelp)
			return true, nil
		}
		return false, nil
	default:
		if result.Suggestion != "" && result.Confidence < 0.5 {
			e.reply(ctx, user.Phone, result.Suggestion)
			return true, nil
		}
		return false, nil
	}
}

// commitPersonal stores a personal payment and confirms it.
func (e *Engine) commitPersonal(ctx context.Context, user *models.Participant, payment *models.PersonalPayment, matched *models.Category) error {
	if err := e.store.CreatePersonalPayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to store personal payment: %w", err)
	}
	expensesTotal.WithLabelValues(payment.Source).Inc()

	categoryName := category.DefaultName
	if matched != nil {
		categoryName = matched.Name
	}
	note := ""
	if payment.NeedsRevision {
		note = "\nRevisalo después, no estoy seguro de los datos. ⚠️"
	}
	e.reply(ctx, user.Phone, fmt.Sprintf("Anotado: *%s* — %s (%s) ✅%s",
		payment.Title, formatAmount(payment.Amount), categoryName, note))
	return nil
}

// handleReceipt reads a transfer receipt and stores it, reusing what the
// user called previous transfers to the same recipient.
func (e *Engine) handleReceipt(ctx context.Context, user *models.Participant, msg gateway.Message) error {
	if !e.cfg.OracleEnabled {
		e.reply(ctx, user.Phone, "No puedo leer comprobantes ahora, cargá el gasto escribiéndolo.")
		return nil
	}

	media, mime, err := e.media.Download(ctx, msg.MediaID)
	if err != nil {
		return fmt.Errorf("failed to download receipt: %w", err)
	}
	receipt, err := e.oracle.ExtractReceipt(ctx, media, mime)
	if err != nil {
		e.reply(ctx, user.Phone, "No pude leer el comprobante, cargá el gasto escribiéndolo.")
		return nil
	}
	if !receipt.Amount.IsPositive() {
		e.reply(ctx, user.Phone, "No encontré el monto en el comprobante, cargá el gasto escribiéndolo.")
		return nil
	}

	categories, err := e.ensureCategories(ctx, user)
	if err != nil {
		return err
	}

	payment := &models.PersonalPayment{
		OwnerID: user.ID,
		Amount:  receipt.Amount,
		IsPaid:  true,
		PaidAt:  time.Now().Unix(),
		Source:  "receipt",
		Recipient: &models.Recipient{
			Name:  receipt.Recipient.Name,
			CBU:   receipt.Recipient.CBU,
			Alias: receipt.Recipient.Alias,
			Bank:  receipt.Recipient.Bank,
		},
	}

	var matched *models.Category
	switch {
	case strings.TrimSpace(msg.Caption) != "":
		// The caption is the user telling us what this was.
		payment.Title = capitalizeTitle(msg.Caption)
		matched = category.MatchOrDefault(msg.Caption, categories)
	default:
		title, categoryID := e.recipientHistory(ctx, user, receipt)
		if title != "" {
			payment.Title = title
			payment.CategoryID = categoryID
			for _, c := range categories {
				if c.ID == categoryID {
					matched = c
				}
			}
		} else {
			name := receipt.Recipient.Name
			if name == "" {
				name = "destinatario desconocido"
			}
			payment.Title = "Transferencia a " + name
			payment.NeedsRevision = true
			matched = category.MatchOrDefault("", categories)
		}
	}
	if payment.CategoryID == "" && matched != nil {
		payment.CategoryID = matched.ID
	}
	return e.commitPersonal(ctx, user, payment, matched)
}

// recipientHistory suggests a title and category from the user's recent
// transfers to the same recipient, picking the most frequent title.
func (e *Engine) recipientHistory(ctx context.Context, user *models.Participant, receipt *oracle.Receipt) (string, string) {
	previous, err := e.store.PersonalPaymentsByRecipient(ctx, user.ID, receipt.Recipient.Name, receipt.Recipient.CBU, 5)
	if err != nil {
		e.log.Warn("failed to load recipient history", "error", err)
		return "", ""
	}
	if len(previous) == 0 {
		return "", ""
	}

	counts := make(map[string]int)
	categoryFor := make(map[string]string)
	for _, p := range previous {
		counts[p.Title]++
		categoryFor[p.Title] = p.CategoryID
	}
	bestTitle, bestCount := "", 0
	for title, count := range counts {
		if count > bestCount {
			bestTitle, bestCount = title, count
		}
	}
	return bestTitle, categoryFor[bestTitle]
}

// handleCategories lists the user's live categories.
func (e *Engine) handleCategories(ctx context.Context, user *models.Participant) error {
	categories, err := e.ensureCategories(ctx, user)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("Tus categorías:\n\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "• %s\n", c.Name)
	}
	e.reply(ctx, user.Phone, strings.TrimRight(b.String(), "\n"))
	return nil
}

// handleSummary renders the current month against the previous one.
func (e *Engine) handleSummary(ctx context.Context, user *models.Participant) error {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevStart := monthStart.AddDate(0, -1, 0)

	current, err := e.store.PersonalPaymentsByOwner(ctx, user.ID, monthStart, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to load current month: %w", err)
	}
	previous, err := e.store.PersonalPaymentsByOwner(ctx, user.ID, prevStart, monthStart)
	if err != nil {
		return fmt.Errorf("failed to load previous month: %w", err)
	}

	total := sumPayments(current)
	prevTotal := sumPayments(previous)

	var b strings.Builder
	fmt.Fprintf(&b, "Resumen de %s:\n\n", monthName(now.Month()))
	fmt.Fprintf(&b, "Total gastado: %s (%d gastos)\n", formatAmount(total), len(current))
	if !prevTotal.IsZero() {
		diff := total.Sub(prevTotal).Div(prevTotal).Mul(decimal.NewFromInt(100))
		if diff.IsNegative() {
			fmt.Fprintf(&b, "📉 %s%% menos que en %s\n", diff.Neg().Round(0), monthName(prevStart.Month()))
		} else {
			fmt.Fprintf(&b, "📈 %s%% más que en %s\n", diff.Round(0), monthName(prevStart.Month()))
		}
	}

	if tops := topCategories(ctx, e, user, current); len(tops) > 0 {
		b.WriteString("\nDonde más gastaste:\n")
		for _, line := range tops {
			b.WriteString(line + "\n")
		}
	}

	if pendingCount := e.pendingRecurrents(ctx, user, monthStart); pendingCount > 0 {
		fmt.Fprintf(&b, "\nTenés %d gastos fijos sin pagar este mes. Escribí *fijos* para verlos.", pendingCount)
	}
	e.reply(ctx, user.Phone, strings.TrimRight(b.String(), "\n"))
	return nil
}

// handleRecurrents lists fixed expenses and whether this month's instance
// was paid.
func (e *Engine) handleRecurrents(ctx context.Context, user *models.Participant) error {
	recurrents, err := e.store.RecurrentsByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load recurrents: %w", err)
	}
	if len(recurrents) == 0 {
		e.reply(ctx, user.Phone, "No tenés gastos fijos cargados.")
		return nil
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	paid, err := e.paidRecurrentIDs(ctx, user, monthStart)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Tus gastos fijos:\n\n")
	for _, r := range recurrents {
		mark := "⏳"
		if paid[r.ID] {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s — %s (vence el %d)\n", mark, r.Title, formatAmount(r.Amount), r.DueDay)
	}
	e.reply(ctx, user.Phone, strings.TrimRight(b.String(), "\n"))
	return nil
}

// handleAnalysis asks the model for a spending read on the current month.
func (e *Engine) handleAnalysis(ctx context.Context, user *models.Participant) error {
	if !e.cfg.OracleEnabled {
		e.reply(ctx, user.Phone, "El análisis no está disponible ahora, probá con *resumen*.")
		return nil
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	current, err := e.store.PersonalPaymentsByOwner(ctx, user.ID, monthStart, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to load current month: %w", err)
	}
	if len(current) == 0 {
		e.reply(ctx, user.Phone, "Todavía no hay gastos este mes para analizar.")
		return nil
	}

	var summary strings.Builder
	fmt.Fprintf(&summary, "Mes: %s. Total: %s en %d gastos.\n", monthName(now.Month()), formatAmount(sumPayments(current)), len(current))
	for _, p := range current {
		fmt.Fprintf(&summary, "- %s: %s\n", p.Title, formatAmount(p.Amount))
	}

	analysis, err := e.oracle.Analyze(ctx, summary.String())
	if err != nil {
		e.log.Warn("analysis failed", "error", err)
		e.reply(ctx, user.Phone, "No pude armar el análisis ahora, probá más tarde.")
		return nil
	}
	e.reply(ctx, user.Phone, strings.TrimSpace(analysis))
	return nil
}

// ensureCategories returns the user's live categories, seeding the defaults
// on first use.
func (e *Engine) ensureCategories(ctx context.Context, user *models.Participant) ([]*models.Category, error) {
	categories, err := e.store.CategoriesByOwner(ctx, user.ID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) > 0 {
		return categories, nil
	}
	for _, c := range category.Seed(user.ID) {
		if err := e.store.CreateCategory(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to seed categories: %w", err)
		}
	}
	categories, err = e.store.CategoriesByOwner(ctx, user.ID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to reload categories: %w", err)
	}
	return categories, nil
}

// pendingRecurrents counts fixed expenses with no paid instance this month.
func (e *Engine) pendingRecurrents(ctx context.Context, user *models.Participant, monthStart time.Time) int {
	recurrents, err := e.store.RecurrentsByOwner(ctx, user.ID)
	if err != nil || len(recurrents) == 0 {
		return 0
	}
	paid, err := e.paidRecurrentIDs(ctx, user, monthStart)
	if err != nil {
		return 0
	}
	count := 0
	for _, r := range recurrents {
		if !paid[r.ID] {
			count++
		}
	}
	return count
}

func (e *Engine) paidRecurrentIDs(ctx context.Context, user *models.Participant, monthStart time.Time) (map[string]bool, error) {
	payments, err := e.store.PersonalPaymentsByOwner(ctx, user.ID, monthStart, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load month payments: %w", err)
	}
	paid := make(map[string]bool)
	for _, p := range payments {
		if p.RecurrentID != "" && p.IsPaid {
			paid[p.RecurrentID] = true
		}
	}
	return paid, nil
}

// topCategories renders up to three category lines sorted by spend.
func topCategories(ctx context.Context, e *Engine, user *models.Participant, payments []*models.PersonalPayment) []string {
	totals := make(map[string]decimal.Decimal)
	for _, p := range payments {
		if p.CategoryID == "" {
			continue
		}
		totals[p.CategoryID] = totals[p.CategoryID].Add(p.Amount)
	}
	if len(totals) == 0 {
		return nil
	}

	type entry struct {
		id    string
		total decimal.Decimal
	}
	entries := make([]entry, 0, len(totals))
	for id, total := range totals {
		entries = append(entries, entry{id, total})
	}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].total.GreaterThan(entries[i].total) {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	if len(entries) > 3 {
		entries = entries[:3]
	}

	lines := make([]string, 0, len(entries))
	for _, en := range entries {
		name := "Sin categoría"
		if c, err := e.store.GetCategory(ctx, en.id); err == nil {
			name = c.Name
		}
		lines = append(lines, fmt.Sprintf("• %s: %s", name, formatAmount(en.total)))
	}
	return lines
}

func sumPayments(payments []*models.PersonalPayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

var monthNames = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

func monthName(m time.Month) string {
	return monthNames[m-1]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func capitalizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
