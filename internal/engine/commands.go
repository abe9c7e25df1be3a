package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gastobot/gastobot/internal/balance"
	"github.com/gastobot/gastobot/internal/gateway"
	"github.com/gastobot/gastobot/internal/models"
	"github.com/gastobot/gastobot/internal/parser"
)

// isBareGroupCommand reports whether a single-word message is a known group
// command typed without the slash. Not everyone remembers the marker.
func isBareGroupCommand(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "ayuda", "help", "saldos", "balance", "gastos", "deudas", "grupos":
		return true
	}
	return false
}

// handleGroupCommand dispatches slash commands in group mode.
func (e *Engine) handleGroupCommand(ctx context.Context, user *models.Participant, text string) error {
	fields := strings.Fields(strings.ToLower(text))
	command := strings.TrimPrefix(fields[0], "/")

	switch command {
	case "ayuda", "help":
		e.reply(ctx, user.Phone, replyGroupHelp)
		return nil
	case "saldos", "balance":
		return e.withActiveGroup(ctx, user, func(group *models.Group) error {
			balances, err := e.balancesFor(ctx, group)
			if err != nil {
				return err
			}
			e.reply(ctx, user.Phone, balancesReply(group.Name, balances))
			return nil
		})
	case "gastos":
		return e.withActiveGroup(ctx, user, func(group *models.Group) error {
			expenses, err := e.store.ExpensesByGroup(ctx, group.ID, 10)
			if err != nil {
				return fmt.Errorf("failed to load expenses: %w", err)
			}
			e.reply(ctx, user.Phone, expensesReply(group.Name, expenses))
			return nil
		})
	case "deudas":
		return e.withActiveGroup(ctx, user, func(group *models.Group) error {
			balances, err := e.balancesFor(ctx, group)
			if err != nil {
				return err
			}
			e.reply(ctx, user.Phone, settlementsReply(balance.Settlements(balances)))
			return nil
		})
	case "grupos":
		groups, err := e.store.GroupsByMember(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to load groups: %w", err)
		}
		if len(groups) == 0 {
			e.reply(ctx, user.Phone, replyNoGroups)
			return nil
		}
		names := make([]string, len(groups))
		for i, g := range groups {
			name := g.Name
			if g.ID == user.ActiveGroupID {
				name += " (activo)"
			}
			names[i] = name
		}
		e.reply(ctx, user.Phone, groupListReply("Tus grupos:", names))
		return nil
	case "grupo":
		return e.handleSetGroup(ctx, user, fields)
	default:
		e.reply(ctx, user.Phone, "No conozco ese comando. Escribí */ayuda* para ver los disponibles.")
		return nil
	}
}

// handleSetGroup implements "/grupo <número>", switching the active group.
func (e *Engine) handleSetGroup(ctx context.Context, user *models.Participant, fields []string) error {
	groups, err := e.store.GroupsByMember(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	if len(groups) == 0 {
		e.reply(ctx, user.Phone, replyNoGroups)
		return nil
	}

	if len(fields) < 2 {
		names := make([]string, len(groups))
		for i, g := range groups {
			names[i] = g.Name
		}
		e.reply(ctx, user.Phone, groupListReply("Elegí el grupo activo con */grupo <número>*:", names))
		return nil
	}

	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > len(groups) {
		e.reply(ctx, user.Phone, fmt.Sprintf("Elegí un número entre 1 y %d.", len(groups)))
		return nil
	}

	group := groups[n-1]
	if err := e.store.SetActiveGroup(ctx, user.ID, group.ID); err != nil {
		return fmt.Errorf("failed to set active group: %w", err)
	}
	e.reply(ctx, user.Phone, fmt.Sprintf("Listo, tu grupo activo ahora es *%s*. ✅", group.Name))
	return nil
}

// withActiveGroup runs fn against the group a command applies to, reusing
// the same resolution as expenses but without parking the command.
func (e *Engine) withActiveGroup(ctx context.Context, user *models.Participant, fn func(*models.Group) error) error {
	groups, err := e.store.GroupsByMember(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	if len(groups) == 0 {
		e.reply(ctx, user.Phone, replyNoGroups)
		return nil
	}
	if user.ActiveGroupID != "" {
		for _, g := range groups {
			if g.ID == user.ActiveGroupID {
				return fn(g)
			}
		}
	}
	if len(groups) == 1 {
		return fn(groups[0])
	}
	e.reply(ctx, user.Phone, "Tenés varios grupos. Elegí uno con */grupo <número>* primero.")
	return nil
}

// runOracleCommand maps a model-recognized intent onto the slash commands.
func (e *Engine) runOracleCommand(ctx context.Context, user *models.Participant, group *models.Group, command string) (bool, error) {
	switch command {
	case "balance":
		balances, err := e.balancesFor(ctx, group)
		if err != nil {
			return true, err
		}
		e.reply(ctx, user.Phone, balancesReply(group.Name, balances))
		return true, nil
	case "expenses":
		expenses, err := e.store.ExpensesByGroup(ctx, group.ID, 10)
		if err != nil {
			return true, fmt.Errorf("failed to load expenses: %w", err)
		}
		e.reply(ctx, user.Phone, expensesReply(group.Name, expenses))
		return true, nil
	case "help":
		e.reply(ctx, user.Phone, replyGroupHelp)
		return true, nil
	default:
		return false, nil
	}
}

// expensesReply renders the recent expense list for a group.
func expensesReply(groupName string, expenses []*models.Expense) string {
	if len(expenses) == 0 {
		return fmt.Sprintf("Todavía no hay gastos en *%s*.", groupName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Últimos gastos de *%s*:\n\n", groupName)
	for _, exp := range expenses {
		fmt.Fprintf(&b, "%s %s — %s (%s)\n",
			parser.CategoryEmoji(exp.Category), exp.Description, formatAmount(exp.Amount), exp.PayerName)
	}
	return strings.TrimRight(b.String(), "\n")
}

// transcribe downloads a voice note and turns it into text.
func (e *Engine) transcribe(ctx context.Context, msg gateway.Message) (string, error) {
	if !e.cfg.OracleEnabled {
		return "", fmt.Errorf("transcription requires the model")
	}
	audio, mime, err := e.media.Download(ctx, msg.MediaID)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	text, err := e.oracle.Transcribe(ctx, audio, mime)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return strings.TrimSpace(text), nil
}
