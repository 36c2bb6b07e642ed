package handlers

import (
	"fmt"
	"strings"

	"github.com/mroshb/quiz_bot/internal/models"
	"github.com/mroshb/quiz_bot/internal/quiz"
	"github.com/mroshb/quiz_bot/internal/security"
	"github.com/mroshb/quiz_bot/internal/services"
)

// Reply keyboard buttons
const (
	BtnTakeTest   = "📝 Take a test"
	BtnMyResults  = "📊 My results"
	BtnHelp       = "ℹ️ Help"
	BtnAdminPanel = "🛠 Admin panel"
	BtnCancel     = "❌ Cancel"
)

const (
	MsgWelcome         = "👋 Welcome to the test bot!\n\nPlease send your <b>full name</b> to register."
	MsgWelcomeBack     = "👋 Welcome back, <b>%s</b>!"
	MsgWelcomeAdmin    = "👋 Welcome, admin! Use the menu below."
	MsgRegistered      = "✅ Registration complete, <b>%s</b>! You can take tests now."
	MsgNameTooShort    = "❌ The name must be at least %d characters. Please send your full name again."
	MsgNotRegistered   = "⚠️ Please register first: send /start."
	MsgMainMenu        = "🏠 Main menu"
	MsgCancel          = "❌ Cancelled."
	MsgUnknownInput    = "🤔 I did not understand that. Use the menu below."
	MsgGenericError    = "⚠️ Something went wrong. Please try again."
	MsgRateLimited     = "⏳ Too many requests. Please slow down."
	MsgAdminOnly       = "❌ Only admins can do that."
	MsgSubscribe       = "📢 To take tests, please join these channels first:\n\n%s\n\nThen press \"I've joined\"."
	MsgStillMissing    = "❌ You have not joined every channel yet."
	MsgSubscribed      = "✅ Thanks for joining!"
	MsgEnterCode       = "🔑 Send the <b>test code</b> to answer by text, or pick a test below to answer with buttons."
	MsgEnterCodeNoList = "🔑 Send the <b>test code</b>."
	MsgTestNotFound    = "❌ No active test with this code. Check the code and send it again."
	MsgAlreadyTaken    = "⚠️ You have already taken this test. Only one attempt is allowed."
	MsgSessionExpired  = "⌛ This attempt is no longer active. Press \"" + BtnTakeTest + "\" to start again."
	MsgMalformed       = "❌ No answers found. Send them like <code>1a 2b 3c</code> or <code>1-A 2-B 3-C</code>."
	MsgIncomplete      = "❌ You answered %d of %d questions. Send answers for every question."
	MsgUseButtons      = "👆 Answer with the buttons under the question."
	MsgNoResults       = "📭 You have no results yet."
	MsgUploadTooLarge  = "❌ The file is too large."
	MsgUploadBadType   = "❌ Please send an Excel file (.xlsx)."
	MsgUploadNotKey    = "❌ Could not read an answer key from this file."
)

const MsgHelp = `ℹ️ <b>How it works</b>

1. Press "` + BtnTakeTest + `".
2. Send the test code you were given and then all answers in one message, e.g. <code>1a 2b 3c</code>.
   Or pick a test from the list and answer question by question with the buttons.
3. When every question is answered, press "Finish" to see your score.

Each test can be taken only once.
/cancel stops the current action.`

const MsgAdminHelp = `🛠 <b>Admin panel</b>

• New test: title, then code ("-" for a generated one), then the answer key as text (<code>1a 2b 3c</code>) or an Excel file.
• Tests: toggle or delete the latest tests.
• Statistics: rankings for every active test.
• Channels: channels students must join before taking tests.`

const (
	MsgAskTitle         = "✍️ Send the <b>title</b> of the new test."
	MsgAskCode          = "🔑 Send the <b>code</b> participants will type, or \"-\" to generate one."
	MsgAskKeys          = "🗝 Code: <code>%s</code>\n\nNow send the answer key as text, e.g. <code>1a 2b 3c</code>, or upload an Excel file (.xlsx)."
	MsgTestCreated      = "✅ Test created!\n\n<b>%s</b>\nCode: <code>%s</code>\nQuestions: %d"
	MsgNoTests          = "📭 There are no tests yet."
	MsgNoActiveTests    = "📭 There are no active tests."
	MsgTestDeleted      = "🗑 Test deleted."
	MsgAskChannel       = "📢 Send the channel username (<code>@channel</code>) or link."
	MsgAskFallback      = "📢 Send the fallback channel username, or \"-\" to clear it."
	MsgChannelAdded     = "✅ Channel %s added."
	MsgChannelRemoved   = "🗑 Channel removed."
	MsgFallbackSet      = "✅ Fallback channel set to %s."
	MsgFallbackCleared  = "✅ Fallback channel cleared."
	MsgInvalidChannel   = "❌ That is not a valid channel username."
	MsgChannelsNone     = "📢 No required channels. Fallback: %s"
	MsgFinishIncomplete = "Answer every question first (%d/%d)."
)

// answerMarksPerLine is how many per-question marks share a line
const answerMarksPerLine = 10

// FormatQuestion renders the interactive question view
func FormatQuestion(snap quiz.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 <b>%s</b>\n", security.EscapeHTML(snap.TestTitle))
	fmt.Fprintf(&sb, "Code: <code>%s</code>\n\n", security.EscapeHTML(snap.TestCode))
	fmt.Fprintf(&sb, "Question <b>%d</b> of %d\n", snap.CurrentQuestion, snap.TotalQuestions)
	fmt.Fprintf(&sb, "Answered: %d/%d\n", snap.AnsweredCount, snap.TotalQuestions)
	if snap.Selection != "" {
		fmt.Fprintf(&sb, "Your answer: <b>%s</b>\n", snap.Selection)
	}
	if snap.CanFinish() {
		sb.WriteString("\n✅ All questions answered. Press Finish to submit.")
	}
	return sb.String()
}

// FormatTextPrompt asks for every answer of a text-mode attempt in one message
func FormatTextPrompt(snap quiz.Snapshot) string {
	return fmt.Sprintf("📝 <b>%s</b>\nQuestions: %d\n\nSend all answers in one message, e.g. <code>1a 2b 3c</code>.",
		security.EscapeHTML(snap.TestTitle), snap.TotalQuestions)
}

// FormatResult renders the score and a per-question mark list
func FormatResult(outcome *quiz.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏁 <b>%s</b>\n\n", security.EscapeHTML(outcome.Test.Title))
	fmt.Fprintf(&sb, "✅ Correct: %d\n", outcome.Score.CorrectCount)
	fmt.Fprintf(&sb, "❌ Incorrect: %d\n", outcome.Score.IncorrectCount())
	fmt.Fprintf(&sb, "📊 Score: <b>%d/%d</b>\n\n", outcome.Score.CorrectCount, outcome.Score.Total)

	for i, d := range outcome.Score.Details {
		mark := "❌"
		if d.IsCorrect {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%d-%s", d.QuestionNumber, mark)
		if (i+1)%answerMarksPerLine == 0 {
			sb.WriteString("\n")
		} else if i+1 < len(outcome.Score.Details) {
			sb.WriteString(" ")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatStatistics renders one block per active test
func FormatStatistics(stats []services.TestStats) string {
	if len(stats) == 0 {
		return MsgNoActiveTests
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Statistics</b>\n")
	for _, s := range stats {
		fmt.Fprintf(&sb, "\n📝 <b>%s</b> (<code>%s</code>), %d participants\n",
			security.EscapeHTML(s.Test.Title), security.EscapeHTML(s.Test.Code), s.Total)
		if len(s.Rows) == 0 {
			sb.WriteString("No results yet.\n")
			continue
		}
		for i, row := range s.Rows {
			name := row.FullName
			if name == "" {
				name = "Unknown"
			}
			fmt.Fprintf(&sb, "%d. %s: %d/%d\n", i+1, security.EscapeHTML(name), row.CorrectCount, row.TotalQuestions)
		}
		if more := s.More(); more > 0 {
			fmt.Fprintf(&sb, "... and %d more\n", more)
		}
	}
	return sb.String()
}

// FormatMyResults renders a participant's own history
func FormatMyResults(results []models.ResultSummary) string {
	if len(results) == 0 {
		return MsgNoResults
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Your results</b>\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "\n📝 <b>%s</b> (<code>%s</code>)\n", security.EscapeHTML(r.Title), security.EscapeHTML(r.Code))
		fmt.Fprintf(&sb, "Score: %d/%d\n", r.CorrectCount, r.TotalQuestions)
		fmt.Fprintf(&sb, "Date: %s\n", r.SubmittedAt.Format("2006-01-02 15:04"))
	}
	return sb.String()
}

// FormatTestList renders the admin test overview
func FormatTestList(tests []models.Test) string {
	if len(tests) == 0 {
		return MsgNoTests
	}

	var sb strings.Builder
	sb.WriteString("📚 <b>Tests</b>\n\n")
	for _, t := range tests {
		status := "🟢"
		if !t.IsActive {
			status = "🔴"
		}
		fmt.Fprintf(&sb, "%s <b>%s</b>, <code>%s</code>, %d questions\n",
			status, security.EscapeHTML(t.Title), security.EscapeHTML(t.Code), t.QuestionCount)
	}
	return sb.String()
}

// FormatChannels renders the required channel settings
func FormatChannels(channels []models.RequiredChannel, fallback string) string {
	if fallback == "" {
		fallback = "none"
	}
	if len(channels) == 0 {
		return fmt.Sprintf(MsgChannelsNone, security.EscapeHTML(fallback))
	}

	var sb strings.Builder
	sb.WriteString("📢 <b>Required channels</b>\n\n")
	for _, ch := range channels {
		fmt.Fprintf(&sb, "• %s\n", security.EscapeHTML(ch.Username))
	}
	fmt.Fprintf(&sb, "\nFallback (used when the list is empty): %s", security.EscapeHTML(fallback))
	return sb.String()
}
