// Package contact holds the gin handlers for the contact resource.
//
// Every handler is built by a factory that receives its dependencies once
// at startup and returns the gin.HandlerFunc the router calls on every
// request:
//
//	api.POST("/contact/add", contact.New(store, v))
package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domain "github.com/aanand-mishra/contact-manager/internal/contact"
	"github.com/aanand-mishra/contact-manager/internal/csvimport"
	"github.com/aanand-mishra/contact-manager/internal/storage"
	"github.com/aanand-mishra/contact-manager/internal/types"
	"github.com/aanand-mishra/contact-manager/internal/utils/response"
)

// CreateBatch handles POST /api/contacts.
//
// Request body:
//
//	{ "contacts": [ { "name": "...", "email": "...", "phone": "+12 3456789012", "dob": "1990-01-01", "age": 30 } ] }
//
// Every entry must pass the batch rules. The batch is stored in one
// transaction, so either every contact is saved or none is.
//
//	201 { "message": "Contacts saved successfully!", "ids": [...] }
//	400 { "message": "Contacts must be an array." } or { "message": "Validation error", "details": [...] }
//	500 { "message": "Failed to save contacts", "error": "..." }
func CreateBatch(store storage.Storage, v *validator.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw struct {
			Contacts json.RawMessage `json:"contacts"`
		}
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, response.GeneralError(response.MsgInvalidBody, err))
			return
		}

		if trimmed := bytes.TrimSpace(raw.Contacts); len(trimmed) == 0 || trimmed[0] != '[' {
			c.JSON(http.StatusBadRequest, response.Message(response.MsgNotArray))
			return
		}

		var req types.BatchRequest
		if err := json.Unmarshal(raw.Contacts, &req.Contacts); err != nil {
			c.JSON(http.StatusBadRequest, response.GeneralError(response.MsgValidation, err))
			return
		}

		if err := v.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				c.JSON(http.StatusBadRequest, response.ValidationError(verrs))
				return
			}
			c.JSON(http.StatusBadRequest, response.GeneralError(response.MsgValidation, err))
			return
		}

		inputs := make([]types.ContactInput, len(req.Contacts))
		for i, bc := range req.Contacts {
			inputs[i] = bc.Input()
		}

		slog.Info("saving contact batch", slog.Int("count", len(inputs)))

		ids, err := store.CreateContacts(c.Request.Context(), inputs)
		if err != nil {
			slog.Error("contact batch failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, response.GeneralError(response.MsgSaveFailed, err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": response.MsgSaved, "ids": ids})
	}
}

// New handles POST /api/contact/add.
//
//	201 { "message": "contact created successfully", "contact": {...} }
//	400 { "message": "Validation error", "details": [...] }
//	500 { "message": "Internal server error" }
func New(store storage.Storage, v *validator.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindInput(c, v)
		if !ok {
			return
		}

		created, err := store.CreateContact(c.Request.Context(), in)
		if err != nil {
			slog.Error("failed to create contact", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, response.Message(response.MsgInternal))
			return
		}

		slog.Info("contact created", slog.Int64("id", created.ID))
		c.JSON(http.StatusCreated, types.ContactResponse{Message: response.MsgCreated, Contact: created})
	}
}

// GetByID handles GET /api/contact/:id.
func GetByID(store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		found, err := store.GetContactByID(c.Request.Context(), id)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, types.ContactResponse{Contact: found})
	}
}

// GetList handles GET /api/contact/all.
func GetList(store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		slog.Info("listing contacts")

		contacts, err := store.ListContacts(c.Request.Context())
		if err != nil {
			slog.Error("failed to list contacts", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, response.Message(response.MsgInternal))
			return
		}
		c.JSON(http.StatusOK, types.ListResponse{Contacts: contacts})
	}
}

// Update handles PUT /api/contact/:id. The body has the same shape and
// rules as New.
//
//	200 { "message": "Contact updated successfully", "contact": {...} }
//	404 { "message": "Contact not found" }
func Update(store storage.Storage, v *validator.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		in, ok := bindInput(c, v)
		if !ok {
			return
		}

		updated, err := store.UpdateContactByID(c.Request.Context(), id, in)
		if err != nil {
			writeStoreError(c, err)
			return
		}

		slog.Info("contact updated", slog.Int64("id", id))
		c.JSON(http.StatusOK, types.ContactResponse{Message: response.MsgUpdated, Contact: updated})
	}
}

// Delete handles DELETE /api/contact/:id.
func Delete(store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		if err := store.DeleteContactByID(c.Request.Context(), id); err != nil {
			writeStoreError(c, err)
			return
		}

		slog.Info("contact deleted", slog.Int64("id", id))
		c.JSON(http.StatusOK, response.Message(response.MsgDeleted))
	}
}

// Export handles GET /api/contact/export, streaming every stored contact
// as CSV under the canonical import header.
func Export(store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		contacts, err := store.ListContacts(c.Request.Context())
		if err != nil {
			slog.Error("failed to export contacts", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, response.Message(response.MsgInternal))
			return
		}

		records := make([]domain.Record, len(contacts))
		for i, ct := range contacts {
			records[i] = toRecord(ct)
		}

		c.Header("Content-Disposition", `attachment; filename="contacts.csv"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := csvimport.Export(c.Writer, records); err != nil {
			slog.Error("csv export interrupted", slog.String("error", err.Error()))
		}
	}
}

func toRecord(ct types.Contact) domain.Record {
	f := domain.Fields{Name: ct.Name, Email: ct.Email, Phone: ct.Phone}
	if ct.DOB != nil {
		f.DateOfBirth = ct.DOB.String()
	}
	if ct.Age != nil {
		f.Age = strconv.Itoa(*ct.Age)
	}
	r := domain.New(f)
	r.ID = strconv.FormatInt(ct.ID, 10)
	return r
}

// bindInput decodes and validates a single-contact body, writing the 400
// response itself when it fails.
func bindInput(c *gin.Context, v *validator.Validate) (types.ContactInput, bool) {
	var in types.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		c.JSON(http.StatusBadRequest, response.GeneralError(response.MsgInvalidBody, err))
		return in, false
	}

	if err := v.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, response.ValidationError(verrs))
		} else {
			c.JSON(http.StatusBadRequest, response.GeneralError(response.MsgValidation, err))
		}
		return in, false
	}
	return in, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, response.Message(response.MsgInvalidID))
		return 0, false
	}
	return id, true
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrContactNotFound) {
		c.JSON(http.StatusNotFound, response.Message(response.MsgNotFound))
		return
	}
	slog.Error("storage call failed", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, response.Message(response.MsgInternal))
}
