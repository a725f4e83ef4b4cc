package fakeapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func echoBadRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// bindValid decodes the request body into v and validates it.
func bindValid(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echoBadRequest("Invalid payload")
	}
	return c.Validate(v)
}

func ok(c echo.Context, status int, msg string) error {
	return c.JSON(status, messageResponse{Message: msg})
}

// --- Employees ---

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	emp, found := s.state.authenticate(req.Username, req.Password)
	if !found {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect username or password")
	}
	token, err := s.IssueToken(emp)
	if err != nil {
		return err
	}
	s.log.Debug().Str("username", emp.Username).Msg("issued token")
	return c.JSON(http.StatusOK, loginResponse{Message: "Logged in successfully", Token: token})
}

func (s *Server) listEmployees(c echo.Context) error {
	return c.JSON(http.StatusOK, s.state.listEmployees())
}

func (s *Server) getEmployee(c echo.Context) error {
	username := c.Param("id")
	emp, err := s.state.employee(username)
	if errors.Is(err, errNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Employee '"+username+"' not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emp)
}

func (s *Server) createEmployee(c echo.Context) error {
	var e domain.Employee
	if err := c.Bind(&e); err != nil {
		return echoBadRequest("Invalid payload")
	}
	if err := domain.ValidateEmployee(e, true); err != nil {
		return err
	}
	if err := s.state.putEmployee(e, true); err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "Employee created successfully")
}

func (s *Server) updateEmployee(c echo.Context) error {
	var e domain.Employee
	if err := bindValid(c, &e); err != nil {
		return err
	}
	e.SSN = c.Param("id")
	if err := s.state.putEmployee(e, false); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Employee updated successfully")
}

func (s *Server) deleteEmployee(c echo.Context) error {
	if err := s.state.deleteEmployee(c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Employee deleted successfully")
}

// --- Trains ---

func (s *Server) listTrains(c echo.Context) error {
	return c.JSON(http.StatusOK, s.state.listTrains())
}

func (s *Server) createTrain(c echo.Context) error {
	var t domain.Train
	if err := bindValid(c, &t); err != nil {
		return err
	}
	created, err := s.state.putTrain(t, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) updateTrain(c echo.Context) error {
	var t domain.Train
	if err := bindValid(c, &t); err != nil {
		return err
	}
	t.TrainID = domain.ID(c.Param("id"))
	if _, err := s.state.putTrain(t, false); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Train updated successfully")
}

func (s *Server) deleteTrain(c echo.Context) error {
	if err := s.state.deleteTrain(domain.ID(c.Param("id"))); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Train deleted successfully")
}

// --- Carriages ---

func (s *Server) listCarriages(c echo.Context) error {
	return c.JSON(http.StatusOK, s.state.listCarriages())
}

func (s *Server) createCarriage(c echo.Context) error {
	var cr domain.Carriage
	if err := bindValid(c, &cr); err != nil {
		return err
	}
	s.state.createCarriage(cr)
	return ok(c, http.StatusCreated, "Carriage created successfully")
}

func (s *Server) updateCarriage(c echo.Context) error {
	var cr domain.Carriage
	if err := bindValid(c, &cr); err != nil {
		return err
	}
	cr.CarriageID = domain.ID(c.Param("id"))
	if err := s.state.updateCarriage(cr); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Carriage updated successfully")
}

func (s *Server) deleteCarriage(c echo.Context) error {
	if err := s.state.deleteCarriage(domain.ID(c.Param("id"))); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Carriage deleted successfully")
}

// --- Maintenances ---

func (s *Server) listMaintenances(c echo.Context) error {
	return c.JSON(http.StatusOK, s.state.listMaintenances())
}

func (s *Server) createMaintenance(c echo.Context) error {
	var m domain.Maintenance
	if err := bindValid(c, &m); err != nil {
		return err
	}
	if _, err := s.state.putMaintenance(m, true); err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "Maintenance created successfully")
}

func (s *Server) updateMaintenance(c echo.Context) error {
	var m domain.Maintenance
	if err := bindValid(c, &m); err != nil {
		return err
	}
	m.MaintenanceID = domain.ID(c.Param("id"))
	if _, err := s.state.putMaintenance(m, false); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Maintenance updated successfully")
}

func (s *Server) deleteMaintenance(c echo.Context) error {
	if err := s.state.deleteMaintenance(domain.ID(c.Param("id"))); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "Maintenance deleted successfully")
}

// --- Health ---

func (s *Server) liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}
