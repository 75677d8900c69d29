package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/domain/types"
	"github.com/secmon-lab/idconsole/pkg/usecase"
)

var (
	colorOK    = color.New(color.FgGreen, color.Bold)
	colorWarn  = color.New(color.FgYellow, color.Bold)
	colorError = color.New(color.FgRed, color.Bold)
	colorLabel = color.New(color.FgCyan)
)

func noticeColor(t types.NoticeType) *color.Color {
	switch t {
	case types.NoticeTypeSuccess:
		return colorOK
	case types.NoticeTypeError:
		return colorError
	case types.NoticeTypeWarning:
		return colorWarn
	default:
		return colorLabel
	}
}

func printNotice(w io.Writer, notice *model.Notice) {
	if notice == nil {
		return
	}
	_, _ = noticeColor(notice.Type).Fprintf(w, "[%s] ", notice.Type)
	_, _ = fmt.Fprintln(w, notice.Message)
}

func printField(w io.Writer, label, value string) {
	_, _ = colorLabel.Fprintf(w, "%-18s", label+":")
	_, _ = fmt.Fprintln(w, value)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func printStatus(w io.Writer, status *usecase.DashboardStatus, threshold time.Duration) {
	printField(w, "Last sync", formatTime(status.LastSyncSuccess))
	printField(w, "Last attempt", formatTime(status.LastSyncAttempt))
	printField(w, "Cached records", fmt.Sprintf("%d", status.RecordCount))

	freshness := colorOK.Sprint("fresh")
	if status.Stale {
		freshness = colorWarn.Sprint("stale")
	}
	printField(w, "Freshness", fmt.Sprintf("%s (threshold %s)", freshness, threshold))

	if status.ConnectionError != "" {
		printField(w, "Connection", colorError.Sprint(status.ConnectionError))
	}
	printNotice(w, status.Notice)
}
