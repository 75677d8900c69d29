package cli_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/idconsole/pkg/cli"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
	"github.com/secmon-lab/idconsole/pkg/domain/types"
	"github.com/secmon-lab/idconsole/pkg/usecase"
)

func TestPrintStatus(t *testing.T) {
	color.NoColor = true

	t.Run("never synced", func(t *testing.T) {
		var buf bytes.Buffer
		cli.PrintStatus(&buf, &usecase.DashboardStatus{Stale: true}, time.Hour)

		out := buf.String()
		gt.String(t, out).Contains("Last sync:")
		gt.String(t, out).Contains("never")
		gt.String(t, out).Contains("stale (threshold 1h0m0s)")
	})

	t.Run("fresh with notice", func(t *testing.T) {
		at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		var buf bytes.Buffer
		cli.PrintStatus(&buf, &usecase.DashboardStatus{
			LastSyncSuccess: &at,
			RecordCount:     42,
			Notice: &model.Notice{
				Type:    types.NoticeTypeSuccess,
				Message: usecase.MsgSyncCompleted,
			},
		}, time.Hour)

		out := buf.String()
		gt.String(t, out).Contains("42")
		gt.String(t, out).Contains("fresh")
		gt.String(t, out).Contains("[success] " + usecase.MsgSyncCompleted)
	})

	t.Run("connection error", func(t *testing.T) {
		var buf bytes.Buffer
		cli.PrintStatus(&buf, &usecase.DashboardStatus{ConnectionError: usecase.MsgConnectionError}, time.Hour)
		gt.String(t, buf.String()).Contains(usecase.MsgConnectionError)
	})
}

func TestPrintNotice_Nil(t *testing.T) {
	var buf bytes.Buffer
	cli.PrintNotice(&buf, nil)
	gt.Value(t, buf.Len()).Equal(0)
}
