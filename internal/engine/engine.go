// Package engine routes inbound messages through the extraction pipeline:
// conversational state first, then commands, then the model, then the
// deterministic parsers. It owns every reply the user sees.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gastobot/gastobot/internal/gateway"
	"github.com/gastobot/gastobot/internal/models"
	"github.com/gastobot/gastobot/internal/oracle"
	"github.com/gastobot/gastobot/internal/pending"
	"github.com/gastobot/gastobot/internal/rates"
	"github.com/gastobot/gastobot/internal/storage"
)

// affirmatives and negatives drive the confirmation state machine. Anything
// else abandons the pending question and is handled as a fresh message.
var (
	affirmatives = []string{"si", "sí", "yes", "s", "ok", "dale", "va", "bueno", "listo", "confirmo"}
	negatives    = []string{"no", "n", "cancelar", "cancel", "nope", "na", "nel"}
)

const maxDescriptionLength = 500

// Config carries the engine's tunables.
type Config struct {
	// OracleEnabled gates every model call.
	OracleEnabled bool
	// OracleThreshold is the minimum confidence an extraction needs before
	// the engine acts on it.
	OracleThreshold float64
	// HomeCurrency is the ledger currency.
	HomeCurrency string
}

// Engine wires the stores, the gateway and the extractors together.
type Engine struct {
	store   storage.Store
	sender  gateway.Sender
	media   gateway.MediaDownloader
	oracle  oracle.Extractor
	pending *pending.Store
	rates   *rates.Client
	cfg     Config
	log     *slog.Logger
}

// New builds an engine. oracle may be nil when extraction is disabled.
func New(store storage.Store, sender gateway.Sender, media gateway.MediaDownloader, ora oracle.Extractor, pend *pending.Store, rateClient *rates.Client, cfg Config, log *slog.Logger) *Engine {
	if ora == nil {
		cfg.OracleEnabled = false
	}
	return &Engine{
		store:   store,
		sender:  sender,
		media:   media,
		oracle:  ora,
		pending: pend,
		rates:   rateClient,
		cfg:     cfg,
		log:     log,
	}
}

// reply sends a text back to the user, logging instead of failing the
// message when delivery breaks.
func (e *Engine) reply(ctx context.Context, to, text string) {
	if err := e.sender.SendText(ctx, to, text); err != nil {
		e.log.Error("failed to send reply", "to", to, "error", err)
	}
}

// HandleMessage processes one inbound message end to end.
func (e *Engine) HandleMessage(ctx context.Context, msg gateway.Message) error {
	user, err := e.store.GetParticipantByPhone(ctx, msg.From)
	if errors.Is(err, storage.ErrNotFound) {
		e.reply(ctx, msg.From, replyNotRegistered)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up sender: %w", err)
	}

	// Mode switches short-circuit everything, and drop pending questions
	// so an answer meant for one mode cannot land in the other.
	switch strings.ToUpper(strings.TrimSpace(msg.Text)) {
	case "MODE GRUPOS":
		return e.switchMode(ctx, user, models.ModeGroups, replyModeGroups)
	case "MODE FINANZAS":
		return e.switchMode(ctx, user, models.ModePersonal, replyModePersonal)
	}

	mode, err := e.routeMode(ctx, user)
	if err != nil {
		return err
	}
	messagesTotal.WithLabelValues(string(mode)).Inc()

	if user.WelcomedAt == 0 {
		welcome := replyWelcomeGroups
		if mode == models.ModePersonal {
			welcome = replyWelcomePersonal
		}
		e.reply(ctx, user.Phone, welcome)
		if err := e.store.MarkWelcomed(ctx, user.ID, time.Now()); err != nil {
			e.log.Error("failed to mark welcomed", "user", user.ID, "error", err)
		}
	}

	if mode == models.ModePersonal {
		err = e.handlePersonal(ctx, user, msg)
	} else {
		err = e.handleGroups(ctx, user, msg)
	}
	if err != nil {
		// Internal failures stay internal. The user gets a plain retry
		// message, the details go to the log via the caller.
		e.reply(ctx, user.Phone, replySomethingBroke)
	}
	return err
}

func (e *Engine) switchMode(ctx context.Context, user *models.Participant, mode models.Mode, confirmation string) error {
	if err := e.store.SetActiveMode(ctx, user.ID, mode); err != nil {
		return fmt.Errorf("failed to switch mode: %w", err)
	}
	e.pending.ClearUser(user.ID)
	e.reply(ctx, user.Phone, confirmation)
	return nil
}

// routeMode decides which pipeline handles the message: the explicit mode if
// the user picked one, otherwise group mode when they belong to any group.
func (e *Engine) routeMode(ctx context.Context, user *models.Participant) (models.Mode, error) {
	if user.ActiveMode.Valid() {
		return user.ActiveMode, nil
	}
	groups, err := e.store.GroupsByMember(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load groups for routing: %w", err)
	}
	if len(groups) > 0 {
		return models.ModeGroups, nil
	}
	return models.ModePersonal, nil
}

func isAffirmative(text string) bool {
	return containsWord(affirmatives, text)
}

func isNegative(text string) bool {
	return containsWord(negatives, text)
}

func containsWord(words []string, text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, "!.")
	for _, w := range words {
		if t == w {
			return true
		}
	}
	return false
}
