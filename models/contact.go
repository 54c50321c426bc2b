package models

import "time"

// Output column names of a cleaned file, in file order.
const (
	ColLinkedIn    = "LinkedIn"
	ColCompanyName = "Company Name"
	ColWebsite     = "Website"
	ColType        = "Type"
	ColCity        = "City"
	ColZip         = "Zip"
	ColState       = "State"
	ColEmail       = "Email"
	ColPhone       = "Phone"
	ColFullName    = "Full Name"
	ColFirstName   = "First Name"
	ColLastName    = "Last Name"
)

// ContactHeader is the fixed header row of every cleaned file.
var ContactHeader = []string{
	ColLinkedIn, ColCompanyName, ColWebsite, ColType, ColCity, ColZip, ColState,
	ColEmail, ColPhone, ColFullName, ColFirstName, ColLastName,
}

// Company is the identity block shared by every contact exploded from one source row.
type Company struct {
	LinkedIn string
	Name     string
	Website  string
	Type     string
	City     string
	Zip      string
	State    string
}

// Contact is one populated email slot of a source row.
type Contact struct {
	Email     string
	Phone     string
	FullName  string
	FirstName string
	LastName  string
}

// ContactRow is the cleaned unit: one company joined with exactly one contact.
type ContactRow struct {
	Company
	Contact
}

// Record returns the row's cells in ContactHeader order.
func (r ContactRow) Record() []string {
	return []string{
		r.LinkedIn, r.Name, r.Website, r.Type, r.City, r.Zip, r.State,
		r.Email, r.Phone, r.FullName, r.FirstName, r.LastName,
	}
}

// DropReason names the filter that removed a contact row.
type DropReason string

const (
	DropChain          DropReason = "chain"
	DropUnknownCompany DropReason = "unknown_company"
	DropUnknownFirst   DropReason = "unknown_first_name"
	DropEmptyEmail     DropReason = "empty_email"
	DropBlockedEmail   DropReason = "blocked_email"
)

// ProcessReport describes one reshape run.
type ProcessReport struct {
	SourceKey  string             `json:"source"`
	OutputKey  string             `json:"output"`
	SourceRows int                `json:"source_rows"`
	Exploded   int                `json:"exploded_rows"`
	Written    int                `json:"written_rows"`
	Dropped    map[DropReason]int `json:"dropped"`
	Duration   time.Duration      `json:"duration_ns"`
}
