package usecase

import (
	"strings"

	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
)

// Intro template placeholders
const (
	PlaceholderUser1 = "{user1}" // mention of the first user
	PlaceholderUser2 = "{user2}"
	PlaceholderName1 = "{name1}" // display name, then real name, then handle
	PlaceholderName2 = "{name2}"
)

// RenderIntro fills the intro template for a pair
func RenderIntro(tmpl string, a, b *model.User) string {
	return strings.NewReplacer(
		PlaceholderUser1, a.Mention(),
		PlaceholderUser2, b.Mention(),
		PlaceholderName1, a.Name(),
		PlaceholderName2, b.Name(),
	).Replace(tmpl)
}
