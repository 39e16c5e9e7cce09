package bot

import (
	"errors"
	"strings"

	"github.com/mydarah/bot/constants"
)

const (
	StartIntro = "Hi, as of right now I only take 5 commands where you can find by typing / in the chat box. " +
		"These 5 commands are the output of finding the blood donation trend in Malaysia"
	StartMenu = "Alternatively, you can click on the menu button on the left of the chat box to select which output you prefer to see"
	StartWait = "Please note that it might take a while for the script to send the output"

	GreetingReply = "Hey there! Please type /start to begin"
	DefaultReply  = "Please type /start to begin"
)

// HandleResponse picks the reply to free text.
func HandleResponse(text string) string {
	if strings.Contains(strings.ToLower(text), "hello") {
		return GreetingReply
	}
	return DefaultReply
}

// apology turns a failed command into the single message the user sees.
func apology(err error) string {
	switch {
	case errors.Is(err, constants.ErrSnapshotNotLoaded):
		return "Sorry, the donation data is still loading. Please try again in a few minutes."
	case errors.Is(err, constants.ErrEmptyResult):
		return "Sorry, there is no data for this chart yet."
	case errors.Is(err, constants.ErrUnmappedEntity):
		return "Sorry, this chart is unavailable until the hospital list is updated."
	}
	return "Sorry, something went wrong while preparing this chart. Please try again later."
}
