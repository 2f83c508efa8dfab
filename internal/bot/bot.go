// Package bot dispatches inbound chat commands: parse, execute against
// storage, render a reply. All user mistakes become reply text here;
// nothing below this boundary formats messages for chat.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"spendbot/internal/cache"
	"spendbot/internal/core"
	"spendbot/internal/gateway"
	"spendbot/internal/log"
	"spendbot/internal/parser"
	"spendbot/internal/ratelimit"
	"spendbot/internal/report"
	"spendbot/internal/storage"
	"spendbot/internal/window"
)

// sharedOwner is the ledger key used when owner scoping is disabled:
// every conversation reads and writes one shared ledger, while replies
// still route to the originating conversation.
const sharedOwner = "shared"

const helpText = `Commands:
/food /drink /item /grocery /dessert $<cost> <name> [x<quantity>]
/backdate <DDMMYY> <category> $<cost> <name> [x<quantity>]
/update <id> <field> <value>
/delete <id>
/today /yesterday /week /month
/summary [MMYY]
/select <query>`

// Bounds for the redelivery guard: replies to recently handled
// messages are kept so a broker redelivery replays the stored reply
// instead of re-executing the command and double-counting a write.
const (
	seenCacheSize = 1024
	seenCacheTTL  = 10 * time.Minute
)

type Bot struct {
	store        *storage.Repository
	replies      *cache.ReplyCache
	seen         *cache.ReplyCache
	limiter      *ratelimit.Limiter
	ownerScoping bool
	now          func() time.Time
}

func New(store *storage.Repository, replies *cache.ReplyCache, limiter *ratelimit.Limiter, ownerScoping bool) *Bot {
	return &Bot{
		store:        store,
		replies:      replies,
		seen:         cache.NewReplyCache(seenCacheSize, seenCacheTTL),
		limiter:      limiter,
		ownerScoping: ownerScoping,
		now:          time.Now,
	}
}

// owner maps a conversation to its ledger key.
func (b *Bot) owner(conversationID string) string {
	if b.ownerScoping {
		return conversationID
	}
	return sharedOwner
}

// Handle processes one command and always produces a reply; user and
// storage errors become reply text, never a returned error. The error
// return exists for the gateway contract and is always nil.
func (b *Bot) Handle(ctx context.Context, cmd gateway.InboundCommand) (gateway.OutboundReply, error) {
	start := time.Now()

	if cmd.MessageID != "" {
		if stored, ok := b.seen.Get(seenKey(cmd)); ok {
			slog.InfoContext(ctx, "Replaying reply for redelivered message",
				log.FieldComponent, log.ComponentBot,
				log.FieldConversation, cmd.ConversationID,
				log.FieldMessageID, cmd.MessageID)
			text, monospace := decodeSeen(stored)
			return b.reply(cmd, text, monospace), nil
		}
	}

	if b.limiter != nil && !b.limiter.Allow(cmd.ConversationID) {
		slog.WarnContext(ctx, "Rate limit exceeded",
			log.FieldComponent, log.ComponentRateLimit,
			log.FieldConversation, cmd.ConversationID,
			log.FieldCommand, cmd.Command)
		return b.reply(cmd, "❌ Too many commands, slow down.", false), nil
	}

	text, monospace, err := b.dispatch(ctx, cmd)
	if err != nil {
		text = b.errorReply(ctx, cmd, err)
		monospace = false
	}

	fields := log.NewFields().
		WithComponent(log.ComponentBot).
		WithConversation(cmd.ConversationID).
		WithCommand(cmd.Keyword()).
		WithOperation(opOf(cmd.Keyword()))
	fields[log.FieldSuccess] = err == nil
	fields[log.FieldDuration] = time.Since(start).Milliseconds()
	slog.InfoContext(ctx, "Command handled", fields.ToSlice()...)

	if cmd.MessageID != "" {
		b.seen.Set(seenKey(cmd), encodeSeen(text, monospace))
	}
	return b.reply(cmd, text, monospace), nil
}

func seenKey(cmd gateway.InboundCommand) string {
	return cache.Key(cmd.ConversationID, cmd.MessageID)
}

// The stored reply carries its monospace flag as a single-byte prefix.
func encodeSeen(text string, monospace bool) string {
	if monospace {
		return "m" + text
	}
	return "t" + text
}

func decodeSeen(stored string) (string, bool) {
	if stored == "" {
		return "", false
	}
	return stored[1:], stored[0] == 'm'
}

// opOf maps a command keyword to its logged operation name.
func opOf(keyword string) string {
	switch keyword {
	case "food", "drink", "item", "grocery", "dessert":
		return log.OpAdd
	case "backdate":
		return log.OpBackdate
	case "update":
		return log.OpUpdate
	case "delete":
		return log.OpDelete
	case "today", "yesterday", "week", "month":
		return log.OpList
	case "summary":
		return log.OpSummary
	case "select":
		return log.OpSelect
	default:
		return keyword
	}
}

func (b *Bot) dispatch(ctx context.Context, cmd gateway.InboundCommand) (string, bool, error) {
	owner := b.owner(cmd.ConversationID)

	switch keyword := cmd.Keyword(); keyword {
	case "start", "help":
		return helpText, false, nil
	case "food", "drink", "item", "grocery", "dessert":
		return b.handleAdd(ctx, owner, cmd)
	case "backdate":
		return b.handleBackdate(ctx, owner, cmd)
	case "update":
		return b.handleUpdate(ctx, owner, cmd)
	case "delete":
		return b.handleDelete(ctx, owner, cmd)
	case "today", "yesterday", "week", "month":
		return b.handleWindow(ctx, owner, core.WindowKind(keyword))
	case "summary":
		return b.handleSummary(ctx, owner, cmd)
	case "select":
		return b.handleSelect(ctx, cmd)
	default:
		return "Unknown command. Send /help for the list.", false, nil
	}
}

func (b *Bot) handleAdd(ctx context.Context, owner string, cmd gateway.InboundCommand) (string, bool, error) {
	intent, err := parser.ParseAdd(cmd.Line(), cmd.Text)
	if err != nil {
		return "", false, err
	}

	t := core.Transaction{
		Date:     core.Today(b.now()),
		Name:     intent.Name,
		Cost:     intent.Cost,
		Quantity: intent.Quantity,
		Category: intent.Category,
		Owner:    owner,
	}
	if err := t.Validate(); err != nil {
		return "", false, err
	}

	merged, err := b.store.Upsert(ctx, t)
	if err != nil {
		return "", false, err
	}
	b.replies.InvalidateOwner(owner)

	if merged {
		return fmt.Sprintf("✅ %s already recorded today, added x%d", t.Name, t.Quantity), false, nil
	}
	return fmt.Sprintf("✅ Recorded %s x%d at $%s (%s)", t.Name, t.Quantity, t.Cost, t.Category), false, nil
}

func (b *Bot) handleBackdate(ctx context.Context, owner string, cmd gateway.InboundCommand) (string, bool, error) {
	intent, err := parser.ParseBackdate(cmd.Line(), cmd.Text)
	if err != nil {
		return "", false, err
	}

	t := core.Transaction{
		Date:     intent.Date,
		Name:     intent.Name,
		Cost:     intent.Cost,
		Quantity: intent.Quantity,
		Category: intent.Category,
		Owner:    owner,
	}
	if err := t.Validate(); err != nil {
		return "", false, err
	}

	merged, err := b.store.Upsert(ctx, t)
	if err != nil {
		return "", false, err
	}
	b.replies.InvalidateOwner(owner)

	if merged {
		return fmt.Sprintf("✅ %s already recorded on %s, added x%d", t.Name, t.Date, t.Quantity), false, nil
	}
	return fmt.Sprintf("✅ Recorded %s x%d at $%s (%s) on %s", t.Name, t.Quantity, t.Cost, t.Category, t.Date), false, nil
}

func (b *Bot) handleUpdate(ctx context.Context, owner string, cmd gateway.InboundCommand) (string, bool, error) {
	intent, err := parser.ParseUpdate(cmd.Text)
	if err != nil {
		return "", false, err
	}

	value, err := core.CoerceField(intent.Field, intent.RawValue)
	if err != nil {
		return "", false, err
	}

	updated, err := b.store.UpdateField(ctx, owner, intent.ID, intent.Field, value)
	if err != nil {
		return "", false, err
	}
	if !updated {
		return "", false, core.ErrNotFound
	}
	b.replies.InvalidateOwner(owner)

	return fmt.Sprintf("✅ Updated %s for transaction %d", intent.Field, intent.ID), false, nil
}

func (b *Bot) handleDelete(ctx context.Context, owner string, cmd gateway.InboundCommand) (string, bool, error) {
	intent, err := parser.ParseDelete(cmd.Text)
	if err != nil {
		return "", false, err
	}

	deleted, err := b.store.DeleteByID(ctx, owner, intent.ID)
	if err != nil {
		return "", false, err
	}
	if !deleted {
		return "", false, core.ErrNotFound
	}
	b.replies.InvalidateOwner(owner)

	return fmt.Sprintf("✅ Deleted transaction %d", intent.ID), false, nil
}

func (b *Bot) handleWindow(ctx context.Context, owner string, kind core.WindowKind) (string, bool, error) {
	today := core.Today(b.now())

	// The reference date is part of the key so a cached /today view
	// cannot outlive its own window across midnight.
	key := cache.Key(owner, string(kind)+":"+today.String())
	if cached, ok := b.replies.Get(key); ok {
		return cached, true, nil
	}

	slog.DebugContext(ctx, "Rendering list view",
		log.FieldComponent, log.ComponentBot,
		log.FieldWindow, string(kind))

	win, err := window.Resolve(kind, today)
	if err != nil {
		return "", false, err
	}

	records, err := b.store.QueryRange(ctx, owner, win.Start, win.End)
	if err != nil {
		return "", false, err
	}

	text := report.RenderList(report.GroupByDay(records))
	b.replies.Set(key, text)
	return text, true, nil
}

func (b *Bot) handleSummary(ctx context.Context, owner string, cmd gateway.InboundCommand) (string, bool, error) {
	intent, err := parser.ParseSummary(cmd.Text)
	if err != nil {
		return "", false, err
	}

	today := core.Today(b.now())

	key := cache.Key(owner, "summary:"+intent.Period+":"+today.String())
	if cached, ok := b.replies.Get(key); ok {
		return cached, true, nil
	}

	slog.DebugContext(ctx, "Rendering summary view",
		log.FieldComponent, log.ComponentBot,
		log.FieldPeriod, intent.Period)

	win, err := window.ResolveSummary(intent.Period, today)
	if err != nil {
		return "", false, err
	}

	records, err := b.store.QueryRange(ctx, owner, win.Start, win.End)
	if err != nil {
		return "", false, err
	}

	title := win.Start.Format("January 2006")
	if intent.Period == "" {
		title += " (to date)"
	}
	text := report.RenderSummary(report.Summarize(records, win.Days), title)
	b.replies.Set(key, text)
	return text, true, nil
}

func (b *Bot) handleSelect(ctx context.Context, cmd gateway.InboundCommand) (string, bool, error) {
	intent, err := parser.ParseRawSelect(cmd.Text)
	if err != nil {
		return "", false, err
	}

	columns, rows, err := b.store.RawSelect(ctx, intent.Query)
	if err != nil {
		return "", false, err
	}

	return renderSelect(columns, rows), true, nil
}

func (b *Bot) reply(cmd gateway.InboundCommand, text string, monospace bool) gateway.OutboundReply {
	return gateway.OutboundReply{
		ConversationID: cmd.ConversationID,
		Text:           text,
		Monospace:      monospace,
		Timestamp:      b.now(),
	}
}

// errorReply maps an error to user-facing text by kind. Internal
// failures are logged in full and reported generically.
func (b *Bot) errorReply(ctx context.Context, cmd gateway.InboundCommand, err error) string {
	switch core.KindOf(err) {
	case core.KindParse:
		return "❌ Invalid format. Expected: " + err.Error()
	case core.KindValidation:
		return "❌ " + err.Error()
	case core.KindNotFound:
		return "❌ Transaction not found."
	case core.KindSafety:
		return "❌ Only SELECT queries are allowed."
	case core.KindConnectivity:
		return "❌ Storage is unavailable, try again later."
	default:
		fields := log.NewFields().
			WithComponent(log.ComponentBot).
			WithConversation(cmd.ConversationID).
			WithCommand(cmd.Keyword()).
			WithError(err)
		fields[log.FieldErrorKind] = string(core.KindOf(err))
		slog.ErrorContext(ctx, "Command failed", fields.ToSlice()...)
		return "❌ Something went wrong."
	}
}

// renderSelect renders raw query results as a pipe-separated table.
func renderSelect(columns []string, rows [][]string) string {
	if len(rows) == 0 {
		return "No rows."
	}

	var b strings.Builder
	b.WriteString(strings.Join(columns, " | "))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
