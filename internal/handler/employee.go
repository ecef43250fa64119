package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arvinth/campus-parking/internal/repository"
)

// EmployeeHandler bundles dependencies for the new-employee endpoint.
type EmployeeHandler struct {
	Employees *repository.EmployeeRepo
}

func NewEmployeeHandler(e *repository.EmployeeRepo) *EmployeeHandler {
	return &EmployeeHandler{Employees: e}
}

type employeeReq struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type employeePart struct {
	ID        uint64 `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// CreateEmployee handles POST /v1/new-employee.
func (h *EmployeeHandler) CreateEmployee(c echo.Context) error {
	var req employeeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Role = strings.TrimSpace(req.Role)

	fieldErrs := map[string]string{}
	if req.FullName == "" {
		fieldErrs["full_name"] = "required"
	}
	if req.Email == "" {
		fieldErrs["email"] = "required"
	} else if !strings.Contains(req.Email, "@") {
		fieldErrs["email"] = "must be a valid email address"
	}
	if req.Role == "" {
		fieldErrs["role"] = "required"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Employees.Create(ctx, req.FullName, req.Email, req.Phone, req.Role)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "employee already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create employee failed"})
	}
	return c.JSON(http.StatusCreated, employeePart{
		ID: e.ID, FullName: e.FullName, Email: e.Email, Phone: e.Phone, Role: e.Role,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	})
}
