package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
)

const emptyReportMessage = "No attendance data found for the selected month/year. The Admin needs to mark attendance first."

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("", authed...)
	ag.GET("/students", api.students)
	ag.GET("/attendance/:date", api.daySheet)
	ag.PUT("/attendance/:date/students/:id", api.mark)
	ag.GET("/reports/:yearMonth", api.report)
}

type (
	MarkRequest struct {
		Status attendance.Status `json:"status"`
	}

	ReportResponse struct {
		attendance.MonthlyReport
		Message string `json:"message,omitempty"`
	}
)

// Handlers

func (api *attendanceApi) students(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Roster().Students())
}

func (api *attendanceApi) daySheet(ctx echo.Context) error {
	sheet, err := api.svc.DaySheet(getContextSession(ctx), attendance.DayRequest{Date: ctx.Param("date")})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	sess := getContextSession(ctx)
	if err := sess.Require(user.CapMarkAttendance); err != nil {
		return err
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "studentId", Error: "must be a number"})
	}
	var data MarkRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	status, _ := attendance.ParseStatus(string(data.Status))

	req := attendance.MarkRequest{Date: ctx.Param("date"), StudentID: id, Status: status}
	if err = api.svc.MarkAttendance(ctx.Request().Context(), sess, req); err != nil {
		return err
	}

	sheet, err := api.svc.DaySheet(sess, attendance.DayRequest{Date: req.Date})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *attendanceApi) report(ctx echo.Context) error {
	report, err := api.svc.RequestReport(getContextSession(ctx), attendance.ReportRequest{YearMonth: ctx.Param("yearMonth")})
	if err != nil {
		return err
	}
	resp := ReportResponse{MonthlyReport: report}
	if report.IsEmpty() {
		resp.Message = emptyReportMessage
	}
	return ctx.JSON(http.StatusOK, resp)
}
