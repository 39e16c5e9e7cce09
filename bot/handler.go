package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/reports"
	"github.com/mydarah/bot/utils"
)

// ReportGenerator renders a report by name.
type ReportGenerator interface {
	Generate(ctx context.Context, name string) (*reports.Report, error)
	Specs() []*reports.Spec
}

// Handler maps one incoming message to an Outcome. It does no I/O with Telegram.
type Handler struct {
	reports  ReportGenerator
	username string // without the leading @
}

func NewHandler(reports ReportGenerator, username string) *Handler {
	return &Handler{reports: reports, username: strings.TrimPrefix(username, "@")}
}

// Handle returns the outcome for msg, or ok=false when the bot should stay silent.
// A panic while handling is converted into a failed outcome.
func (h *Handler) Handle(ctx context.Context, msg *tgbotapi.Message) (out Outcome, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Bot: recovered from panic: %v", r)
			out, ok = Failure(fmt.Errorf("panic: %v", r)), true
		}
	}()

	if msg == nil || msg.Text == "" {
		return Outcome{}, false
	}

	if msg.IsCommand() {
		if !h.addressedToUs(msg) {
			return Outcome{}, false
		}
		if out, known := h.command(ctx, msg.Command()); known {
			return out, true
		}
		// Unknown commands get the free-text treatment.
	}
	return h.freeText(msg)
}

func (h *Handler) command(ctx context.Context, name string) (Outcome, bool) {
	if name == "start" {
		return Success(Text(StartIntro), Text(StartMenu), Text(StartWait)), true
	}
	for _, spec := range h.reports.Specs() {
		if spec.Name != name {
			continue
		}
		report, err := h.reports.Generate(ctx, name)
		if err != nil {
			return Failure(err), true
		}
		photo := &tgbotapi.FileBytes{Name: report.Filename, Bytes: report.Image}
		return Success(Reply{Photo: photo}, Text(report.Freshness), Text(report.Explanation)), true
	}
	return Outcome{}, false
}

func (h *Handler) freeText(msg *tgbotapi.Message) (Outcome, bool) {
	text := msg.Text
	if msg.Chat != nil && (msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()) {
		stripped, mentioned := utils.StripMention(text, h.username)
		if !mentioned {
			return Outcome{}, false
		}
		text = stripped
	}
	return Success(Text(HandleResponse(text))), true
}

// addressedToUs is false for "/cmd@otherbot" in a group.
func (h *Handler) addressedToUs(msg *tgbotapi.Message) bool {
	full := msg.CommandWithAt()
	at := strings.Index(full, "@")
	if at < 0 || h.username == "" {
		return true
	}
	return strings.EqualFold(full[at+1:], h.username)
}
