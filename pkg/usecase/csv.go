package usecase

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/idconsole/pkg/domain/model"
)

// CSVHeader is the header row of the user export
var CSVHeader = []string{"ID", "Full Name", "Email", "Status", "Last Sign In", "Roles", "Teams", "Created At"}

// WriteCSV writes users as CSV, one row per user in the given order
func WriteCSV(w io.Writer, users []*model.ProcessedUser) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return goerr.Wrap(err, "failed to write csv header")
	}

	for _, u := range users {
		row := []string{
			string(u.ID),
			u.FullName,
			u.Email,
			u.StatusLabel(),
			u.LastSignIn.String(),
			strings.Join(u.RoleNames, ", "),
			strings.Join(u.TeamNames, ", "),
			u.CreatedAt,
		}
		if err := cw.Write(row); err != nil {
			return goerr.Wrap(err, "failed to write csv row", goerr.V("user_id", u.ID))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush csv")
	}
	return nil
}

// ExportFileName returns the download name for an export taken at now
func ExportFileName(now time.Time) string {
	return "spectro_users_" + now.UTC().Format(time.DateOnly) + ".csv"
}
