package core

import (
	"time"

	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/circlehub/internal/app/system/normalize"
	"github.com/dalemusser/circlehub/internal/domain/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	maxNameLen        = 100
	maxDescriptionLen = 5000
)

// cleanEventFields normalizes f in place and rejects invalid values.
func cleanEventFields(f *models.EventFields) error {
	f.Name = normalize.Name(f.Name)
	f.Date = normalize.Text(f.Date)
	f.Time = normalize.Text(f.Time)
	f.Location = normalize.Name(f.Location)
	f.Description = htmlsanitize.StripTags(normalize.Text(f.Description))
	if f.GroupID != nil {
		gid := normalize.ID(*f.GroupID)
		if gid == "" {
			f.GroupID = nil
		} else {
			f.GroupID = &gid
		}
	}

	switch {
	case f.Name == "":
		return apperr.InvalidInput("event name is required")
	case len([]rune(f.Name)) > maxNameLen:
		return apperr.InvalidInput("event name is too long")
	case f.Date == "":
		return apperr.InvalidInput("event date is required")
	case len([]rune(f.Description)) > maxDescriptionLen:
		return apperr.InvalidInput("event description is too long")
	}
	if _, err := time.Parse(dateLayout, f.Date); err != nil {
		return apperr.InvalidInput("event date must be YYYY-MM-DD")
	}
	if f.Time != "" {
		if _, err := time.Parse(timeLayout, f.Time); err != nil {
			return apperr.InvalidInput("event time must be HH:MM")
		}
	}
	return nil
}

// cleanProfile normalizes p and requires both name parts.
func cleanProfile(p models.Profile) (models.Profile, error) {
	p.LastName = normalize.Name(p.LastName)
	p.FirstName = normalize.Name(p.FirstName)
	p.LastNameKana = normalize.Name(p.LastNameKana)
	p.FirstNameKana = normalize.Name(p.FirstNameKana)
	p.Affiliation = normalize.Name(p.Affiliation)
	p.Grade = normalize.Name(p.Grade)

	if p.LastName == "" || p.FirstName == "" {
		return p, apperr.InvalidInput("last name and first name are required")
	}
	for _, s := range []string{p.LastName, p.FirstName, p.LastNameKana, p.FirstNameKana, p.Affiliation, p.Grade} {
		if len([]rune(s)) > maxNameLen {
			return p, apperr.InvalidInput("profile field is too long")
		}
	}
	return p, nil
}
