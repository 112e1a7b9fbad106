package models

import "time"

// AppointmentRecord is the internal representation of one qualifying
// schedule row. RawDate exists only for calendar-day comparison and must not
// leak to callers; use View for anything user-facing.
type AppointmentRecord struct {
	RowIndex     int
	RawDate      time.Time
	Date         string
	Name         string
	Address1     string
	Address2     string
	Phone        string
	Email        string
	PetName      string
	ApptType     string
	SpeciesBreed string
	AgeSexColor  string
}

// AppointmentView is the display-only projection of a record returned to
// callers. It carries no raw date.
type AppointmentView struct {
	RowIndex     int    `json:"rowIndex"`
	Date         string `json:"date"`
	Name         string `json:"name"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	PetName      string `json:"petName"`
	ApptType     string `json:"apptType"`
	SpeciesBreed string `json:"speciesBreed"`
	AgeSexColor  string `json:"ageSexColor"`
}

// View maps the internal record to its external projection.
func (r AppointmentRecord) View() AppointmentView {
	return AppointmentView{
		RowIndex:     r.RowIndex,
		Date:         r.Date,
		Name:         r.Name,
		Address1:     r.Address1,
		Address2:     r.Address2,
		Phone:        r.Phone,
		Email:        r.Email,
		PetName:      r.PetName,
		ApptType:     r.ApptType,
		SpeciesBreed: r.SpeciesBreed,
		AgeSexColor:  r.AgeSexColor,
	}
}
