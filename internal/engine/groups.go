package engine

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gastobot/gastobot/internal/balance"
	"github.com/gastobot/gastobot/internal/gateway"
	"github.com/gastobot/gastobot/internal/mentions"
	"github.com/gastobot/gastobot/internal/models"
	"github.com/gastobot/gastobot/internal/oracle"
	"github.com/gastobot/gastobot/internal/parser"
	"github.com/gastobot/gastobot/internal/pending"
)

// handleGroups runs the group-mode pipeline. Conversational state is checked
// before anything else: an answer to a pending question must never be
// re-parsed as a new expense.
func (e *Engine) handleGroups(ctx context.Context, user *models.Participant, msg gateway.Message) error {
	text := strings.TrimSpace(msg.Text)

	switch msg.MediaKind {
	case gateway.MediaAudio:
		transcribed, err := e.transcribe(ctx, msg)
		if err != nil {
			e.reply(ctx, user.Phone, "No pude entender el audio, probá escribiendo el gasto.")
			return nil
		}
		text = transcribed
	case gateway.MediaImage, gateway.MediaDocument:
		e.reply(ctx, user.Phone, "Los comprobantes van en modo finanzas personales. Escribí *MODE FINANZAS* para cambiar.")
		return nil
	}

	if handled, err := e.resolveProposal(ctx, user, text); handled || err != nil {
		return err
	}
	if handled, err := e.resolveSelection(ctx, user, text); handled || err != nil {
		return err
	}

	if strings.HasPrefix(text, "/") || isBareGroupCommand(text) {
		return e.handleGroupCommand(ctx, user, text)
	}
	if text == "" {
		e.reply(ctx, user.Phone, replyUnparseable)
		return nil
	}

	group, err := e.resolveGroup(ctx, user, text)
	if err != nil || group == nil {
		return err
	}
	return e.processGroupText(ctx, user, group, text)
}

// resolveProposal applies the sender's answer to a pending confirmation.
// Affirmative commits, negative cancels, anything else abandons the draft
// and lets the message flow on as new input.
func (e *Engine) resolveProposal(ctx context.Context, user *models.Participant, text string) (bool, error) {
	draft, ok := e.pending.Proposal(models.ModeGroups, user.ID)
	if !ok {
		return false, nil
	}

	switch {
	case isAffirmative(text):
		e.pending.DeleteProposal(models.ModeGroups, user.ID)
		if err := e.store.CreateExpense(ctx, draft.Expense); err != nil {
			return true, fmt.Errorf("failed to store confirmed expense: %w", err)
		}
		proposalsTotal.WithLabelValues("committed").Inc()
		expensesTotal.WithLabelValues("oracle").Inc()
		e.reply(ctx, user.Phone, expenseCommitted(
			draft.Expense.Description, draft.Expense.Category, draft.Expense.Amount, draft.SplitNames))
		return true, nil
	case isNegative(text):
		e.pending.DeleteProposal(models.ModeGroups, user.ID)
		proposalsTotal.WithLabelValues("cancelled").Inc()
		e.reply(ctx, user.Phone, replyExpenseCancelled)
		return true, nil
	default:
		e.pending.DeleteProposal(models.ModeGroups, user.ID)
		proposalsTotal.WithLabelValues("abandoned").Inc()
		return false, nil
	}
}

// resolveSelection replays a parked message once the sender picks a group.
// A number out of range re-asks; any other text drops the parked message.
func (e *Engine) resolveSelection(ctx context.Context, user *models.Participant, text string) (bool, error) {
	sel, ok := e.pending.Selection(user.ID)
	if !ok {
		return false, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		e.pending.DeleteSelection(user.ID)
		return false, nil
	}
	if n < 1 || n > len(sel.GroupIDs) {
		e.reply(ctx, user.Phone, fmt.Sprintf("Elegí un número entre 1 y %d.", len(sel.GroupIDs)))
		return true, nil
	}

	e.pending.DeleteSelection(user.ID)
	group, err := e.store.GetGroup(ctx, sel.GroupIDs[n-1])
	if err != nil {
		return true, fmt.Errorf("failed to load selected group: %w", err)
	}
	if err := e.store.SetActiveGroup(ctx, user.ID, group.ID); err != nil {
		e.log.Error("failed to persist active group", "user", user.ID, "error", err)
	}
	return true, e.processGroupText(ctx, user, group, sel.Text)
}

// resolveGroup picks the group a message applies to. Multi-group users with
// no active group get asked, and the message waits for their answer.
func (e *Engine) resolveGroup(ctx context.Context, user *models.Participant, text string) (*models.Group, error) {
	groups, err := e.store.GroupsByMember(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	if len(groups) == 0 {
		e.reply(ctx, user.Phone, replyNoGroups)
		return nil, nil
	}

	if user.ActiveGroupID != "" {
		for _, g := range groups {
			if g.ID == user.ActiveGroupID {
				return g, nil
			}
		}
	}
	if len(groups) == 1 {
		return groups[0], nil
	}

	ids := make([]string, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
		names[i] = g.Name
	}
	e.pending.PutSelection(user.ID, &pending.Selection{Text: text, GroupIDs: ids})
	e.reply(ctx, user.Phone, groupListReply("¿En qué grupo va? Respondé con el número:", names))
	return nil, nil
}

// processGroupText interprets a message that already has a group: model
// first when available, then the deterministic parsers.
func (e *Engine) processGroupText(ctx context.Context, user *models.Participant, group *models.Group, text string) error {
	if e.cfg.OracleEnabled {
		handled, err := e.tryOracleGroup(ctx, user, group, text)
		if handled || err != nil {
			return err
		}
	}

	if parser.IsPayment(text) {
		return e.handleRegexPayment(ctx, user, group, text)
	}
	return e.handleRegexExpense(ctx, user, group, text)
}

// tryOracleGroup runs the model over the message and acts on confident
// results. Returns handled=false to fall through to the deterministic path.
func (e *Engine) tryOracleGroup(ctx context.Context, user *models.Participant, group *models.Group, text string) (bool, error) {
	roster, err := e.store.GroupMembers(ctx, group.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load roster: %w", err)
	}
	names := make([]string, len(roster))
	for i, m := range roster {
		names[i] = m.Name
	}

	result, err := e.oracle.ExtractGroupMessage(ctx, text, names)
	if err != nil {
		oracleRequestsTotal.WithLabelValues("error").Inc()
		e.log.Warn("model extraction failed, falling back", "error", err)
		return false, nil
	}
	oracleRequestsTotal.WithLabelValues(string(result.Type)).Inc()

	switch result.Type {
	case oracle.TypeExpense:
		if result.Confidence < e.cfg.OracleThreshold {
			return false, nil
		}
		return e.proposeOracleExpense(ctx, user, group, roster, text, result)
	case oracle.TypePayment:
		if result.Confidence < e.cfg.OracleThreshold {
			return false, nil
		}
		counterparty := mentions.Match(result.Counterparty, roster)
		if counterparty == nil || counterparty.ID == user.ID || !result.Amount.IsPositive() {
			return false, nil
		}
		return true, e.commitPayment(ctx, user, group, counterparty, result.Direction, result.Amount)
	case oracle.TypeCommand:
		return e.runOracleCommand(ctx, user, group, result.Command)
	default:
		if result.Suggestion != "" && result.Confidence < 0.5 {
			e.reply(ctx, user.Phone, result.Suggestion)
			return true, nil
		}
		return false, nil
	}
}

// proposeOracleExpense converts an extraction into a draft and asks for
// confirmation. Model-extracted expenses never commit without a yes.
func (e *Engine) proposeOracleExpense(ctx context.Context, user *models.Participant, group *models.Group, roster []*models.Participant, text string, result *oracle.Result) (bool, error) {
	if !result.Amount.IsPositive() {
		e.reply(ctx, user.Phone, replyAmountNotPositive)
		return true, nil
	}
	description := result.Description
	if description == "" {
		description = text
	}
	if len(description) > maxDescriptionLength {
		e.reply(ctx, user.Phone, replyDescriptionTooLong)
		return true, nil
	}

	tokens := result.SplitAmong
	exclude := false
	if len(result.ExcludeFromSplit) > 0 {
		tokens = result.ExcludeFromSplit
		exclude = true
	}
	split, err := mentions.SplitFromMentions(tokens, exclude, user.ID, result.IncludesSender, roster)
	if err != nil {
		e.reply(ctx, user.Phone, splitErrorReply(err))
		return true, nil
	}
	// An inclusion list names the others; the flag says whether the payer
	// shares the expense as well.
	if !exclude && len(tokens) > 0 && result.IncludesSender && !slices.Contains(split, user.ID) {
		split = append(split, user.ID)
	}
	splitNames := rosterNames(roster, split)

	amount := result.Amount
	var originalAmount decimal.Decimal
	originalCurrency := ""
	if result.Currency != "" && result.Currency != e.cfg.HomeCurrency {
		converted, rate := e.rates.Convert(ctx, result.Amount, result.Currency)
		if !rate.IsZero() {
			originalAmount = result.Amount
			originalCurrency = result.Currency
			amount = converted
		}
	}

	category := result.Category
	if category == "" {
		category = parser.Categorize(description)
	}

	expense := &models.Expense{
		GroupID:       group.ID,
		PayerID:       user.ID,
		PayerName:     user.Name,
		Amount:        amount,
		Description:   description,
		Category:      category,
		SplitAmong:    split,
		OriginalInput: text,
		Source:        "oracle",
	}
	if originalCurrency != "" {
		expense.OriginalAmount = &originalAmount
		expense.OriginalCurrency = originalCurrency
	}

	e.pending.PutProposal(models.ModeGroups, user.ID, &pending.Draft{
		Expense:    expense,
		SplitNames: splitNames,
	})
	proposalsTotal.WithLabelValues("proposed").Inc()
	e.reply(ctx, user.Phone, confirmationPrompt(description, category, amount, originalAmount, originalCurrency, splitNames))
	return true, nil
}

// handleRegexPayment commits a settlement parsed from a payment phrase.
func (e *Engine) handleRegexPayment(ctx context.Context, user *models.Participant, group *models.Group, text string) error {
	parsed := parser.ParsePayment(text)
	if parsed == nil {
		e.reply(ctx, user.Phone, "No entendí el pago. Probá: *le pagué 500 a @alguien*")
		return nil
	}

	roster, err := e.store.GroupMembers(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	counterparty := mentions.Match(parsed.Counterparty, roster)
	if counterparty == nil {
		e.reply(ctx, user.Phone, fmt.Sprintf("No encontré a *%s* en el grupo.", parsed.Counterparty))
		return nil
	}
	if counterparty.ID == user.ID {
		e.reply(ctx, user.Phone, "No podés registrar un pago con vos mismo.")
		return nil
	}
	return e.commitPayment(ctx, user, group, counterparty, string(parsed.Direction), parsed.Amount)
}

// commitPayment stores a payment and notifies the counterparty when they
// have a registered phone.
func (e *Engine) commitPayment(ctx context.Context, user *models.Participant, group *models.Group, counterparty *models.Participant, direction string, amount decimal.Decimal) error {
	payment := &models.Payment{
		GroupID:    group.ID,
		RecordedBy: user.ID,
		Amount:     amount,
	}
	if direction == "received" {
		payment.FromID, payment.ToID = counterparty.ID, user.ID
	} else {
		payment.FromID, payment.ToID = user.ID, counterparty.ID
	}

	if err := e.store.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to store payment: %w", err)
	}
	paymentsTotal.Inc()

	e.reply(ctx, user.Phone, paymentCommitted(direction, counterparty.Name, amount))
	if counterparty.Phone != "" {
		e.reply(ctx, counterparty.Phone, paymentNotification(direction, user.Name, amount))
	}
	return nil
}

// handleRegexExpense commits an expense parsed deterministically. This path
// needs no confirmation: the message already is the structured form.
func (e *Engine) handleRegexExpense(ctx context.Context, user *models.Participant, group *models.Group, text string) error {
	parsed := parser.ParseExpense(text)
	if parsed.NeedsReview {
		e.reply(ctx, user.Phone, replyUnparseable)
		return nil
	}
	if !parsed.Amount.IsPositive() {
		e.reply(ctx, user.Phone, replyAmountNotPositive)
		return nil
	}
	if len(parsed.Description) > maxDescriptionLength {
		e.reply(ctx, user.Phone, replyDescriptionTooLong)
		return nil
	}

	roster, err := e.store.GroupMembers(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	split, err := mentions.SplitFromMentions(parsed.Mentions, false, user.ID, true, roster)
	if err != nil {
		e.reply(ctx, user.Phone, splitErrorReply(err))
		return nil
	}

	amount := parsed.Amount
	description := parsed.Description
	var original *decimal.Decimal
	originalCurrency := ""
	if hit := parser.ExtractCurrency(text, e.cfg.HomeCurrency); hit != nil {
		converted, rate := e.rates.Convert(ctx, hit.Amount, hit.Currency)
		if !rate.IsZero() {
			amount = converted
			o := hit.Amount
			original = &o
			originalCurrency = hit.Currency
			description = parser.StripCurrencyWords(description)
			if description == "" {
				description = parsed.Description
			}
		}
	}

	expense := &models.Expense{
		GroupID:          group.ID,
		PayerID:          user.ID,
		PayerName:        user.Name,
		Amount:           amount,
		OriginalAmount:   original,
		OriginalCurrency: originalCurrency,
		Description:      description,
		Category:         parser.Categorize(description),
		SplitAmong:       split,
		OriginalInput:    text,
		Source:           "parser",
	}
	if err := e.store.CreateExpense(ctx, expense); err != nil {
		return fmt.Errorf("failed to store expense: %w", err)
	}
	expensesTotal.WithLabelValues("parser").Inc()

	e.reply(ctx, user.Phone, expenseCommitted(description, expense.Category, amount, rosterNames(roster, split)))
	return nil
}

// rosterNames maps split member ids back to display names.
func rosterNames(roster []*models.Participant, ids []string) []string {
	byID := make(map[string]string, len(roster))
	for _, m := range roster {
		byID[m.ID] = m.Name
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// balancesFor recomputes the group's net positions from its full history.
func (e *Engine) balancesFor(ctx context.Context, group *models.Group) ([]balance.MemberBalance, error) {
	roster, err := e.store.GroupMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	expenses, err := e.store.ExpensesByGroup(ctx, group.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	payments, err := e.store.PaymentsByGroup(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return balance.Compute(roster, expenses, payments), nil
}
