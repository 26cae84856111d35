package runtime

import (
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/format"
)

const (
	openingText         = "I couldn't find any properties matching your search. Would you like me to run a deeper search for you?"
	farewellText        = "No problem! Feel free to come back any time if you change your mind."
	askLocationText     = "Great! Which area or city would you like to live in?"
	locationTooShort    = "Please enter a location with at least 3 characters."
	confirmQuestion     = "Shall I use these details for the deeper search?"
	confirmFallbackText = "Shall I use your previous search details for the deeper search?"
	confirmReprompt     = "Please choose Confirm to keep these details or Edit to change them."
	propertyTypeText    = "What type of property are you looking for?"
	bedroomsText        = "How many bedrooms do you need?"
	bedroomsHint        = `You can answer with a number (3), a range (2-4 or 2 to 4), a minimum (min 2 or 3+), a maximum (max 4), or "studio".`
	bedroomsError       = "Sorry, I couldn't work out how many bedrooms you need."
	publicTransportText = "Do you need to be close to public transport?"
	schoolsText         = "Is being near good schools important to you?"
	timelineText        = "When are you looking to move?"
	financialText       = "Do you already have a mortgage in principle or a pre-approved loan?"
	loanHint            = "Tip: most agents ask for proof of a pre-approved loan before arranging viewings."
	emailText           = "What's the best email address to send matching properties to?"
	emailInvalid        = "Please enter a valid email address."
	registerText        = "Great news! Register an account so we can arrange viewings for you straight away."
	thankYouText        = "Thanks! We'll email you as soon as we find properties that match."
)

func openingPrompt() domain.Prompt {
	return domain.Prompt{Text: openingText, Options: []string{domain.OptionYesPlease, domain.OptionNoThanks}}
}

func askLocationPrompt() domain.Prompt {
	return domain.Prompt{Text: askLocationText}
}

func confirmPrompt(f domain.Filters) domain.Prompt {
	text := confirmFallbackText
	if msg := format.BuildConfirmationMessage(f); msg != "" {
		text = msg + " " + confirmQuestion
	}
	return domain.Prompt{Text: text, Options: confirmOptions()}
}

func confirmOptions() []string {
	return []string{domain.OptionConfirm, domain.OptionEdit}
}

func yesNo(text string) domain.Prompt {
	return domain.Prompt{Text: text, Options: []string{domain.OptionYes, domain.OptionNo}}
}

func bedroomsHintPrompt() domain.Prompt {
	return domain.Prompt{Text: bedroomsHint, Hint: true}
}

func loanHintPrompt() domain.Prompt {
	return domain.Prompt{Text: loanHint, Hint: true}
}
