package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mkarpovs/crewtally/internal/common"
	"github.com/mkarpovs/crewtally/internal/server/designations"
	"github.com/mkarpovs/crewtally/internal/server/ledger"
	"github.com/mkarpovs/crewtally/internal/server/models"
)

// Register creates the first admin account. Refused once any account exists;
// further users are managed by an admin through the server API.
func (a *App) Register(ctx context.Context) error {
	hasAny, err := a.users.HasAny(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if hasAny {
		fmt.Fprintln(a.out, "Accounts already exist, ask an admin to create yours")
		return nil
	}

	username, err := GetSimpleText(a.reader, "Admin username", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.users.CreateFirstAdmin(ctx, username, string(password)); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintln(a.out, "Admin account created, you can log in now")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.sessions.Login(ctx, username, string(password))
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintln(a.out, "Logged in as", user.UserName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// UseDate switches the working date of the loop.
func (a *App) UseDate(ctx context.Context) error {
	date, err := GetSimpleText(a.reader, "Date (YYYY-MM-DD)", a.out)
	if err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		fmt.Fprintln(a.out, "Error: invalid date, expected YYYY-MM-DD")
		return err
	}
	a.date = date
	return nil
}

// visibleAreas returns the current user and the areas they may see. A nil
// user means nobody is logged in; callers should bail out with a hint.
func (a *App) visibleAreas(ctx context.Context) (*models.User, []string, error) {
	user, err := a.sessions.CurrentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil, nil, nil
	}
	visible, err := a.areas.VisibleTo(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, visible, nil
}

func (a *App) Areas(ctx context.Context) error {
	user, visible, err := a.visibleAreas(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if user == nil {
		return nil
	}
	for _, area := range visible {
		fmt.Fprintln(a.out, area)
	}
	return nil
}

func renderPresent(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func (a *App) Rows(ctx context.Context) error {
	area, err := GetSimpleText(a.reader, "Area", a.out)
	if err != nil {
		return err
	}

	doc, err := a.ledger.GetDate(ctx, a.date)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	container := doc.Area(area)
	if container == nil || len(container.Rows) == 0 {
		fmt.Fprintln(a.out, "No rows")
		return nil
	}

	for _, row := range container.Rows {
		confirmed := " "
		if row.Confirmed {
			confirmed = "*"
		}
		fmt.Fprintf(a.out, "%s %-30s %s\n", confirmed, row.DesignationLabel, renderPresent(row.Present))
	}
	return nil
}

func (a *App) Add(ctx context.Context) error {
	area, err := GetSimpleText(a.reader, "Area", a.out)
	if err != nil {
		return err
	}
	label, err := GetSimpleText(a.reader, "Designation", a.out)
	if err != nil {
		return err
	}

	row, err := a.ledger.AddRow(ctx, a.date, area, label)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if row == nil {
		fmt.Fprintln(a.out, "Nothing added (empty designation or not logged in)")
		return nil
	}
	fmt.Fprintln(a.out, "Added", row.DesignationLabel)
	return nil
}

// Set updates the present count of a row. An empty count clears the value.
func (a *App) Set(ctx context.Context) error {
	area, err := GetSimpleText(a.reader, "Area", a.out)
	if err != nil {
		return err
	}
	label, err := GetSimpleText(a.reader, "Designation", a.out)
	if err != nil {
		return err
	}
	raw, err := GetSimpleText(a.reader, "Present count (empty to clear)", a.out)
	if err != nil {
		return err
	}

	update := &ledger.PresentUpdate{}
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintln(a.out, "Error: count must be a whole number")
			return err
		}
		update.Value = &n
	}

	key := designations.Normalize(label)
	if err := a.ledger.UpdateRow(ctx, a.date, area, key, ledger.RowPatch{Present: update}); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

func (a *App) Confirm(ctx context.Context) error {
	area, err := GetSimpleText(a.reader, "Area", a.out)
	if err != nil {
		return err
	}
	label, err := GetSimpleText(a.reader, "Designation", a.out)
	if err != nil {
		return err
	}

	confirmed := true
	key := designations.Normalize(label)
	if err := a.ledger.UpdateRow(ctx, a.date, area, key, ledger.RowPatch{Confirmed: &confirmed}); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

func (a *App) ConfirmAll(ctx context.Context) error {
	user, visible, err := a.visibleAreas(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if user == nil {
		return nil
	}

	flipped, err := a.ledger.ConfirmAllValid(ctx, a.date, visible)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintln(a.out, "Confirmed", flipped, "row(s)")
	return nil
}

func (a *App) Total(ctx context.Context) error {
	user, visible, err := a.visibleAreas(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if user == nil {
		return nil
	}

	for _, area := range visible {
		totals, err := a.ledger.AreaTotals(ctx, a.date, area)
		if err != nil {
			fmt.Fprintln(a.out, "Error:", err)
			return err
		}
		fmt.Fprintf(a.out, "%-30s total=%d confirmed=%d/%d\n", area, totals.Total, totals.ConfirmedCount, totals.RowCount)
	}

	grand, err := a.ledger.GrandTotal(ctx, a.date, visible)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintln(a.out, "Grand total:", grand)
	return nil
}

func (a *App) Audit(ctx context.Context) error {
	entries, err := a.ledger.AuditTrail(ctx, a.date)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No audit entries")
		return nil
	}

	for _, e := range entries {
		from := e.From
		if from == "" {
			from = "-"
		}
		to := e.To
		if to == "" {
			to = "-"
		}
		fmt.Fprintf(a.out, "%s %s %s/%s %s: %s -> %s\n",
			e.TS.Format(time.RFC3339), e.User, e.Area, e.DesignationKey, e.Field, from, to)
	}
	return nil
}

func (a *App) Suggest(ctx context.Context) error {
	partial, err := GetSimpleText(a.reader, "Designation starts with", a.out)
	if err != nil {
		return err
	}
	area, err := GetSimpleText(a.reader, "Area (empty for global)", a.out)
	if err != nil {
		return err
	}

	suggestions, err := a.index.Suggest(ctx, partial, area)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	for _, s := range suggestions {
		fmt.Fprintln(a.out, s)
	}
	return nil
}

// Export writes the full backup payload to a local file.
func (a *App) Export(ctx context.Context) error {
	path, err := GetSimpleText(a.reader, "Export file name", a.out)
	if err != nil {
		return err
	}
	if path == "" {
		path = "crewtally-backup.json"
	}

	raw, err := a.backups.ExportJSON(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintln(a.out, "Exported to", path)
	return nil
}
