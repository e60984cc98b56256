package attendance

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/roster"
	"github.com/trezcool/rollcall/core/session"
	"github.com/trezcool/rollcall/core/user"
)

var errUnknownStudent = "unknown student"

type (
	// Observer is notified of attendance events, e.g. to count them.
	Observer interface {
		MarkRecorded(status Status)
		ReportServed(empty bool)
		PersistFailed()
	}

	Service struct {
		store    *RecordStore
		roster   roster.Roster
		validate *validator.Validate
		logger   core.Logger
		observer Observer
	}

	MarkRequest struct {
		Date      string `json:"date" validate:"required,datekey"`
		StudentID int    `json:"studentId" validate:"required"`
		Status    Status `json:"status" validate:"required,oneof=Present Absent"`
	}

	DayRequest struct {
		Date string `json:"date" validate:"required,datekey"`
	}

	ReportRequest struct {
		YearMonth string `json:"yearMonth" validate:"required,yearmonth"`
	}

	SheetRow struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Status Status `json:"status"`
	}

	// DaySheet is the admin's marking table for one date, in roster order.
	DaySheet struct {
		Date string     `json:"date"`
		Rows []SheetRow `json:"rows"`
	}
)

// NewService wires the attendance commands. observer may be nil.
func NewService(store *RecordStore, r roster.Roster, validate *validator.Validate, logger core.Logger, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		store:    store,
		roster:   r,
		validate: validate,
		logger:   logger,
		observer: observer,
	}
}

func (svc *Service) Roster() roster.Roster {
	return svc.roster
}

// DaySheet lists every roster student with their status on the requested date.
func (svc *Service) DaySheet(sess session.Context, req DayRequest) (DaySheet, error) {
	if err := sess.Require(user.CapMarkAttendance); err != nil {
		return DaySheet{}, err
	}
	if err := svc.validate.Struct(req); err != nil {
		return DaySheet{}, err
	}

	day := svc.store.GetDay(req.Date)
	students := svc.roster.Students()
	sheet := DaySheet{Date: req.Date, Rows: make([]SheetRow, len(students))}
	for i, s := range students {
		sheet.Rows[i] = SheetRow{ID: s.ID, Name: s.Name, Status: day.Status(s.ID)}
	}
	return sheet, nil
}

// MarkAttendance records the status of a roster student on a date.
func (svc *Service) MarkAttendance(ctx context.Context, sess session.Context, req MarkRequest) error {
	if err := sess.Require(user.CapMarkAttendance); err != nil {
		return err
	}
	if err := svc.validate.Struct(req); err != nil {
		return err
	}
	if _, ok := svc.roster.Lookup(req.StudentID); !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "studentId", Error: errUnknownStudent})
	}

	if err := svc.store.SetStatus(ctx, req.Date, req.StudentID, req.Status); err != nil {
		if core.IsPersistence(err) {
			svc.observer.PersistFailed()
			svc.logger.Error("attendance not saved", err, sess.User())
		}
		return errors.Wrap(err, "setting status")
	}
	svc.observer.MarkRecorded(req.Status)
	svc.logger.Info("attendance marked and saved", map[string]interface{}{
		"date":    req.Date,
		"student": req.StudentID,
		"status":  req.Status,
	}, sess.User())
	return nil
}

// RequestReport aggregates the requested month. An empty report is not an error.
func (svc *Service) RequestReport(sess session.Context, req ReportRequest) (MonthlyReport, error) {
	if err := sess.Require(user.CapViewReports); err != nil {
		return MonthlyReport{}, err
	}
	if err := svc.validate.Struct(req); err != nil {
		return MonthlyReport{}, err
	}

	report := AggregateMonth(svc.roster, svc.store, req.YearMonth)
	svc.observer.ReportServed(report.IsEmpty())
	return report, nil
}

type nopObserver struct{}

func (nopObserver) MarkRecorded(Status) {}
func (nopObserver) ReportServed(bool)   {}
func (nopObserver) PersistFailed()      {}
