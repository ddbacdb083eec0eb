package api

import (
	"encoding/json"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/kuitang/notes-api/internal/auth"
	"github.com/kuitang/notes-api/internal/errs"
	"github.com/kuitang/notes-api/internal/notes"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30

	msgUsernameLength   = "Username must be between 3 and 30 characters"
	msgEmailInvalid     = "Valid email required"
	msgPasswordShort    = "Password must be at least 6 characters"
	msgPasswordRequired = "Password is required"
	msgTitleRequired    = "Title is required (max 200 characters)"
	msgContentRequired  = "Content is required"
	msgTitleLength      = "Title must be between 1 and 200 characters"
	msgContentEmpty     = "Content cannot be empty"
	msgTagsInvalid      = "Tags must be an array of strings"
)

// fieldErrors accumulates validation failures in request order.
type fieldErrors []errs.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, errs.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return errs.Invalid(f...)
}

// stringField returns the string value of key. present is false when the key
// is missing; ok is false when it is present but not a JSON string.
func stringField(fields map[string]json.RawMessage, key string) (value string, present, ok bool) {
	raw, present := fields[key]
	if !present {
		return "", false, true
	}
	if err := json.Unmarshal(raw, &value); err != nil || string(raw) == "null" {
		return "", true, false
	}
	return value, true, true
}

// tagsField decodes an optional array of strings. JSON null is rejected.
func tagsField(fields map[string]json.RawMessage, key string) (tags []string, present, ok bool) {
	raw, present := fields[key]
	if !present {
		return nil, false, true
	}
	if string(raw) == "null" {
		return nil, true, false
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, true, false
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, true, true
}

func validEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return false
	}
	_, domain, _ := strings.Cut(email, "@")
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseRegister(fields map[string]json.RawMessage) (auth.RegisterParams, error) {
	var problems fieldErrors

	username, _, ok := stringField(fields, "username")
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); !ok || n < minUsernameLength || n > maxUsernameLength {
		problems.add("username", msgUsernameLength)
	}

	email, _, ok := stringField(fields, "email")
	email = normalizeEmail(email)
	if !ok || !validEmail(email) {
		problems.add("email", msgEmailInvalid)
	}

	password, _, ok := stringField(fields, "password")
	if !ok || utf8.RuneCountInString(password) < auth.MinPasswordLength {
		problems.add("password", msgPasswordShort)
	}

	return auth.RegisterParams{Username: username, Email: email, Password: password}, problems.err()
}

func parseLogin(fields map[string]json.RawMessage) (email, password string, err error) {
	var problems fieldErrors

	email, _, ok := stringField(fields, "email")
	email = normalizeEmail(email)
	if !ok || !validEmail(email) {
		problems.add("email", msgEmailInvalid)
	}

	password, _, ok = stringField(fields, "password")
	if !ok || password == "" {
		problems.add("password", msgPasswordRequired)
	}

	return email, password, problems.err()
}

func parseCreateNote(fields map[string]json.RawMessage) (notes.CreateNoteParams, error) {
	var problems fieldErrors

	title, _, ok := stringField(fields, "title")
	title = strings.TrimSpace(title)
	if n := utf8.RuneCountInString(title); !ok || n < 1 || n > notes.MaxTitleLength {
		problems.add("title", msgTitleRequired)
	}

	content, _, ok := stringField(fields, "content")
	content = strings.TrimSpace(content)
	if !ok || content == "" {
		problems.add("content", msgContentRequired)
	}

	tags, _, ok := tagsField(fields, "tags")
	if !ok {
		problems.add("tags", msgTagsInvalid)
	}

	return notes.CreateNoteParams{Title: title, Content: content, Tags: tags}, problems.err()
}

func parseUpdateNote(fields map[string]json.RawMessage) (notes.UpdateNoteParams, error) {
	var (
		problems fieldErrors
		params   notes.UpdateNoteParams
	)

	if title, present, ok := stringField(fields, "title"); present {
		title = strings.TrimSpace(title)
		if n := utf8.RuneCountInString(title); !ok || n < 1 || n > notes.MaxTitleLength {
			problems.add("title", msgTitleLength)
		} else {
			params.Title = &title
		}
	}

	if content, present, ok := stringField(fields, "content"); present {
		content = strings.TrimSpace(content)
		if !ok || content == "" {
			problems.add("content", msgContentEmpty)
		} else {
			params.Content = &content
		}
	}

	if tags, present, ok := tagsField(fields, "tags"); present {
		if !ok {
			problems.add("tags", msgTagsInvalid)
		} else {
			params.Tags = &tags
		}
	}

	return params, problems.err()
}
