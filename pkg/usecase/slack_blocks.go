package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	goslack "github.com/slack-go/slack"
)

// Slack modal identifiers
const (
	PairsModalCallbackID = "pairbot_pairs_modal"
	PairsBlockID         = "pairbot_pairs"
	PairsActionID        = "pairbot_pairs_input"
	TemplateBlockID      = "pairbot_template"
	TemplateActionID     = "pairbot_template_input"
)

// Block Kit limits
const (
	maxMessageBlocks = 50
	maxSectionText   = 3000
	maxHeaderText    = 150
	maxItemLineRunes = 500
)

func plainText(s string) *goslack.TextBlockObject {
	return goslack.NewTextBlockObject(goslack.PlainTextType, s, false, false)
}

func mrkdwnText(s string) *goslack.TextBlockObject {
	return goslack.NewTextBlockObject(goslack.MarkdownType, s, false, false)
}

func mrkdwnSection(s string) *goslack.SectionBlock {
	return goslack.NewSectionBlock(mrkdwnText(s), nil, nil)
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeMrkdwn neutralizes Slack control characters in operator input
func escapeMrkdwn(s string) string {
	return mrkdwnEscaper.Replace(s)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}

// itemChunk is one section block of report items
type itemChunk struct {
	block goslack.Block
	items int
}

// itemSections renders items under heading, packing lines into as few
// section blocks as the text limit allows
func itemSections(heading string, items []model.ReportItem) []itemChunk {
	var chunks []itemChunk
	var b strings.Builder
	count := 0

	flush := func() {
		if b.Len() == 0 {
			return
		}
		chunks = append(chunks, itemChunk{block: mrkdwnSection(b.String()), items: count})
		b.Reset()
		count = 0
	}

	b.WriteString(heading)
	for _, item := range items {
		prefix := fmt.Sprintf("• *Line %d* ", item.LineNumber)
		text := item.Label
		if item.Detail != "" {
			text += ": " + item.Detail
		}
		// Truncate before escaping so no entity is cut in half
		text = truncateRunes(text, maxItemLineRunes-utf8.RuneCountInString(prefix))
		line := prefix + escapeMrkdwn(text)

		if b.Len()+len(line)+1 > maxSectionText {
			flush()
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
		count++
	}
	flush()

	return chunks
}

// BuildReportBlocks renders a report as a Block Kit message: header, counts,
// failures, then successes. Reports too large for one message are truncated
// with a note saying how many items were left out.
func BuildReportBlocks(r *model.Report) []goslack.Block {
	blocks := []goslack.Block{
		goslack.NewHeaderBlock(plainText(truncateRunes(r.Title, maxHeaderText))),
	}

	if len(r.Counts) > 0 {
		fields := make([]*goslack.TextBlockObject, 0, len(r.Counts))
		for _, c := range r.Counts {
			fields = append(fields, mrkdwnText(fmt.Sprintf("*%s*\n%d", c.Label, c.Value)))
		}
		blocks = append(blocks, goslack.NewSectionBlock(nil, fields, nil))
	}

	if len(r.Failures) == 0 && len(r.Successes) == 0 {
		blocks = append(blocks, mrkdwnSection("_No pairs were submitted._"))
	}

	var body []itemChunk
	if len(r.Failures) > 0 {
		body = append(body, itemSections(fmt.Sprintf(":warning: *Needs attention (%d)*", len(r.Failures)), r.Failures)...)
	}
	if len(r.Successes) > 0 {
		if len(body) > 0 {
			body = append(body, itemChunk{block: goslack.NewDividerBlock()})
		}
		body = append(body, itemSections(fmt.Sprintf(":white_check_mark: *OK (%d)*", len(r.Successes)), r.Successes)...)
	}

	// Leave room for the footer and the truncation note
	budget := maxMessageBlocks - len(blocks) - 2
	omitted := 0
	for i, chunk := range body {
		if i >= budget {
			omitted += chunk.items
			continue
		}
		blocks = append(blocks, chunk.block)
	}
	if omitted > 0 {
		blocks = append(blocks, goslack.NewContextBlock("",
			mrkdwnText(fmt.Sprintf("_%d more items not shown. Use the CLI for the full report._", omitted))))
	}

	if r.Footer != "" {
		blocks = append(blocks, goslack.NewContextBlock("", mrkdwnText(escapeMrkdwn(r.Footer))))
	}

	return blocks
}

// ReportSummary is the plain-text notification fallback for a report
func ReportSummary(r *model.Report) string {
	parts := make([]string, 0, len(r.Counts))
	for _, c := range r.Counts {
		parts = append(parts, fmt.Sprintf("%s %d", c.Label, c.Value))
	}
	if len(parts) == 0 {
		return r.Title
	}
	return r.Title + ": " + strings.Join(parts, ", ")
}

// BuildSearchBlocks lists directory matches for a query
func BuildSearchBlocks(query string, users []*model.User) []goslack.Block {
	q := escapeMrkdwn(query)
	if len(users) == 0 {
		return []goslack.Block{mrkdwnSection(fmt.Sprintf("No users match `%s`.", q))}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Users matching `%s`*", q)
	for _, u := range users {
		fmt.Fprintf(&b, "\n• %s `%s`", u.Mention(), escapeMrkdwn(u.Handle))
		if u.RealName != "" {
			fmt.Fprintf(&b, " %s", escapeMrkdwn(u.RealName))
		}
		if u.Email != "" {
			fmt.Fprintf(&b, " (%s)", escapeMrkdwn(u.Email))
		}
	}
	return []goslack.Block{mrkdwnSection(b.String())}
}

// BuildMessageBlocks wraps a single line of mrkdwn
func BuildMessageBlocks(text string) []goslack.Block {
	return []goslack.Block{mrkdwnSection(text)}
}

// BuildHelpBlocks explains the slash command
func BuildHelpBlocks(command string) []goslack.Block {
	if command == "" {
		command = "/pair"
	}
	lines := []string{
		"*Pair people up and introduce them in a private conversation.*",
		fmt.Sprintf("• `%s` opens a form to paste pairs", command),
		fmt.Sprintf("• `%s @alice, @bob` pairs people right away, one pair per line", command),
		fmt.Sprintf("• `%s preview <pairs>` checks pairs without sending anything", command),
		fmt.Sprintf("• `%s find <name>` searches the directory", command),
		fmt.Sprintf("• `%s refresh` reloads the directory", command),
		"People can be given as `@handle`, email, Slack mention or part of their name.",
		"Intro templates may use `{user1}`, `{user2}` (mentions) and `{name1}`, `{name2}` (names).",
	}
	return []goslack.Block{mrkdwnSection(strings.Join(lines, "\n"))}
}

// BuildPairsModal is the form opened by the bare slash command
func BuildPairsModal(defaultTemplate string) goslack.ModalViewRequest {
	pairsInput := goslack.NewPlainTextInputBlockElement(
		plainText("@alice, @bob\ncarol@example.com, Dave"), PairsActionID)
	pairsInput.Multiline = true

	templateInput := goslack.NewPlainTextInputBlockElement(nil, TemplateActionID)
	templateInput.Multiline = true
	templateInput.InitialValue = defaultTemplate

	templateBlock := goslack.NewInputBlock(TemplateBlockID, plainText("Intro message"),
		plainText("{user1} and {user2} become mentions"), templateInput)
	templateBlock.Optional = true

	return goslack.ModalViewRequest{
		Type:       goslack.VTModal,
		CallbackID: PairsModalCallbackID,
		Title:      plainText("Pair people"),
		Submit:     plainText("Pair"),
		Close:      plainText("Cancel"),
		Blocks: goslack.Blocks{
			BlockSet: []goslack.Block{
				goslack.NewInputBlock(PairsBlockID, plainText("Pairs, one per line"),
					plainText("Two people per line, separated by a comma"), pairsInput),
				templateBlock,
			},
		},
	}
}

// ParsePairsModal reads the submitted pairs and intro template
func ParsePairsModal(view goslack.View) (pairs, introTemplate string) {
	if view.State == nil {
		return "", ""
	}
	if block, ok := view.State.Values[PairsBlockID]; ok {
		pairs = block[PairsActionID].Value
	}
	if block, ok := view.State.Values[TemplateBlockID]; ok {
		introTemplate = block[TemplateActionID].Value
	}
	return pairs, strings.TrimSpace(introTemplate)
}
