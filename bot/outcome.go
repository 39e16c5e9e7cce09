package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Reply is one outgoing message: a photo or plain text.
type Reply struct {
	Text  string
	Photo *tgbotapi.FileBytes
}

// Outcome is the result of handling one update. Either Err is set, or Replies
// holds the messages to send in order.
type Outcome struct {
	Replies []Reply
	Err     error
}

func Success(replies ...Reply) Outcome {
	return Outcome{Replies: replies}
}

func Failure(err error) Outcome {
	return Outcome{Err: err}
}

func Text(text string) Reply {
	return Reply{Text: text}
}

// Messages renders the outcome for a chat. A failure becomes one apology.
func (o Outcome) Messages(chatID int64) []tgbotapi.Chattable {
	if o.Err != nil {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, apology(o.Err))}
	}

	messages := make([]tgbotapi.Chattable, 0, len(o.Replies))
	for _, r := range o.Replies {
		if r.Photo != nil {
			messages = append(messages, tgbotapi.NewPhoto(chatID, *r.Photo))
			continue
		}
		messages = append(messages, tgbotapi.NewMessage(chatID, r.Text))
	}
	return messages
}
