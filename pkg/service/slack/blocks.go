package slack

import (
	"fmt"
	"time"

	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/domain/types"
	"github.com/slack-go/slack"
)

func noticeEmoji(t types.NoticeType) string {
	switch t {
	case types.NoticeTypeSuccess:
		return ":white_check_mark:"
	case types.NoticeTypeError:
		return ":x:"
	case types.NoticeTypeWarning:
		return ":warning:"
	default:
		return ":information_source:"
	}
}

func noticeFallbackText(notice *model.Notice) string {
	return fmt.Sprintf("[%s] %s", notice.Type, notice.Message)
}

// buildNoticeBlocks renders a notice as a section with a context line
func buildNoticeBlocks(notice *model.Notice) []slack.Block {
	text := truncateToMaxBytes(
		fmt.Sprintf("%s *%s*", noticeEmoji(notice.Type), notice.Message),
		maxSectionTextBytes,
	)

	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil, nil,
	)

	at := notice.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	contextBlock := slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("%s sync · %s", notice.Mode, at.UTC().Format(time.RFC3339)),
			false, false),
	)

	return []slack.Block{section, contextBlock}
}
