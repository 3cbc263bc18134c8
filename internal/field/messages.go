package field

// User-facing status texts. These mirror the platform's settings page
// wording so scripted output matches what learners see in the browser.
const (
	// GenericSuccessText is shown after an ordinary acknowledged save.
	GenericSuccessText = "Your changes have been saved."

	// GenericFailureText is shown for save failures with no more specific
	// message available.
	GenericFailureText = "An error occurred. Please try again later."

	// InvalidInputText is shown when local validation rejects a pending
	// value before any network traffic.
	InvalidInputText = "Please enter a valid value."

	// InvalidEmailText is the email variant of InvalidInputText.
	InvalidEmailText = "Please enter a valid email address."

	// ReloginRequiredText is shown when a language preference save fails.
	// The locale endpoint rejects requests from stale sessions, and the
	// only fix is a fresh login.
	ReloginRequiredText = "You must sign out and sign back in before your language changes take effect."

	// EmailConfirmationTextFormat is the success message for an email
	// change request. The address is the requested one; the committed
	// value stays unchanged until the learner confirms via the link.
	EmailConfirmationTextFormat = "We've sent a confirmation message to %s. Click the link in the message to update your email address."

	// PasswordResetTextFormat is the success message for a password reset
	// request.
	PasswordResetTextFormat = "We've sent a message to %s. Click the link in the message to reset your password."

	// UnlinkedText is shown after a social auth provider is disconnected.
	UnlinkedText = "Successfully unlinked."

	// SavingText is the in-progress message for ordinary saves.
	SavingText = "Saving"

	// UnlinkingText is the in-progress message while disconnecting a
	// social auth provider.
	UnlinkingText = "Unlinking"
)
