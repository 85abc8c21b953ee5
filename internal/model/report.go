package model

import (
	"fmt"
	"time"
)

// Category classifies a report into one of the fixed civic-issue domains.
type Category string

const (
	CategoryRoad        Category = "Road"
	CategoryWater       Category = "Water"
	CategoryElectricity Category = "Electricity"
	CategoryWaste       Category = "Waste"
	CategoryTraffic     Category = "Traffic"
	CategoryParks       Category = "Parks"
	CategoryEmergency   Category = "Emergency"
	CategoryGeneral     Category = "General"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryRoad,
		CategoryWater,
		CategoryElectricity,
		CategoryWaste,
		CategoryTraffic,
		CategoryParks,
		CategoryEmergency,
		CategoryGeneral,
	}
}

// IsValid reports whether c is a member of the category enum.
func (c Category) IsValid() bool {
	switch c {
	case CategoryRoad, CategoryWater, CategoryElectricity, CategoryWaste,
		CategoryTraffic, CategoryParks, CategoryEmergency, CategoryGeneral:
		return true
	}
	return false
}

// Status is the triage state of a report. The constants are ordered:
// New < Triaged < In Progress < Resolved < Closed.
type Status string

const (
	StatusNew        Status = "New"
	StatusTriaged    Status = "Triaged"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
)

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusNew,
		StatusTriaged,
		StatusInProgress,
		StatusResolved,
		StatusClosed,
	}
}

// IsValid reports whether s is a member of the status enum.
func (s Status) IsValid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in the ordered status set, or -1 for
// an unknown status.
func (s Status) Index() int {
	for i, known := range Statuses() {
		if s == known {
			return i
		}
	}
	return -1
}

// Priority bounds. Every report priority must stay inside [1,10].
const (
	PriorityMin = 1
	PriorityMax = 10
)

// MediaType identifies the kind of attached media.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Location is an optional geographic anchor for a report.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// MediaItem is a single attached photo or video. Items are immutable;
// changing a report's media means replacing the whole list.
type MediaItem struct {
	Type  MediaType `json:"type"`
	URL   string    `json:"url"`
	Thumb string    `json:"thumb,omitempty"`
	Name  string    `json:"name,omitempty"`
}

// Reporter identifies the citizen who filed a report. Set at creation,
// never mutated afterwards.
type Reporter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TimelineEvent is one append-only audit entry on a report. Events are
// never removed or reordered; insertion order matches non-decreasing TS.
type TimelineEvent struct {
	TS    time.Time `json:"ts"`
	Actor string    `json:"actor"`
	Note  string    `json:"note"`
}

// Report is a single citizen-submitted civic issue.
type Report struct {
	// ID is opaque and globally unique. The server assigns it on a
	// successful create; the repository synthesizes an RPT_-prefixed
	// one when creating offline. Immutable once set.
	ID string `json:"id"`

	// Title is a short human-readable summary. Required at creation.
	Title string `json:"title"`

	// Description is the citizen's free-text account. Required at creation.
	Description string `json:"description"`

	// Category is the triage domain (use Category* constants).
	Category Category `json:"category"`

	// Priority ranges from PriorityMin to PriorityMax inclusive.
	Priority int `json:"priority"`

	// Status is the triage state (use Status* constants). New reports
	// always start as StatusNew.
	Status Status `json:"status"`

	// Location optionally anchors the issue on the map.
	Location *Location `json:"location,omitempty"`

	// Media holds attached photos and videos in upload order.
	Media []MediaItem `json:"media,omitempty"`

	// Reporter is who filed the report.
	Reporter Reporter `json:"reporter"`

	// AssignedTo names the worker handling the report, if any.
	AssignedTo string `json:"assignedTo,omitempty"`

	// Timeline is the append-only audit trail.
	Timeline []TimelineEvent `json:"timeline"`

	// CreatedAt is set exactly once when the report comes into being.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is set on every successful update, remote or local.
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Validate checks the fields a report must carry at creation time.
// The core never silently repairs missing required fields.
func (r *Report) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("report title must not be empty")
	}
	if r.Description == "" {
		return fmt.Errorf("report description must not be empty")
	}
	if r.Category != "" && !r.Category.IsValid() {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	if r.Status != "" && !r.Status.IsValid() {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	if r.Priority != 0 && (r.Priority < PriorityMin || r.Priority > PriorityMax) {
		return fmt.Errorf("priority %d out of range [%d,%d]", r.Priority, PriorityMin, PriorityMax)
	}
	return nil
}

// Clone returns a deep copy so callers can hand out report values
// without aliasing the slices underneath.
func (r Report) Clone() Report {
	out := r
	if r.Location != nil {
		loc := *r.Location
		out.Location = &loc
	}
	if r.Media != nil {
		out.Media = make([]MediaItem, len(r.Media))
		copy(out.Media, r.Media)
	}
	if r.Timeline != nil {
		out.Timeline = make([]TimelineEvent, len(r.Timeline))
		copy(out.Timeline, r.Timeline)
	}
	return out
}

// ReportUpdate is a partial update applied to an existing report.
// Nil fields are preserved; set fields replace the prior value.
// The timeline is deliberately absent: it is append-only and owned by
// the merge logic, never replaced wholesale.
type ReportUpdate struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Category    *Category    `json:"category,omitempty"`
	Priority    *int         `json:"priority,omitempty"`
	Status      *Status      `json:"status,omitempty"`
	Location    *Location    `json:"location,omitempty"`
	Media       *[]MediaItem `json:"media,omitempty"`
	AssignedTo  *string      `json:"assignedTo,omitempty"`
}

// Validate checks that the set fields of an update are inside the schema.
func (u *ReportUpdate) Validate() error {
	if u.Title != nil && *u.Title == "" {
		return fmt.Errorf("report title must not be empty")
	}
	if u.Description != nil && *u.Description == "" {
		return fmt.Errorf("report description must not be empty")
	}
	if u.Category != nil && !u.Category.IsValid() {
		return fmt.Errorf("unknown category %q", *u.Category)
	}
	if u.Status != nil && !u.Status.IsValid() {
		return fmt.Errorf("unknown status %q", *u.Status)
	}
	if u.Priority != nil && (*u.Priority < PriorityMin || *u.Priority > PriorityMax) {
		return fmt.Errorf("priority %d out of range [%d,%d]", *u.Priority, PriorityMin, PriorityMax)
	}
	return nil
}

// Note returns the audit-trail note this update produces: the status
// wording when the update changes status, a generic one otherwise.
func (u *ReportUpdate) Note() string {
	if u.Status != nil {
		return "Status changed to " + string(*u.Status)
	}
	return "Report updated"
}

// Apply shallow-merges the update into r: set fields replace, nil
// fields preserve. The timeline is untouched.
func (u *ReportUpdate) Apply(r *Report) {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Priority != nil {
		r.Priority = *u.Priority
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Location != nil {
		loc := *u.Location
		r.Location = &loc
	}
	if u.Media != nil {
		media := make([]MediaItem, len(*u.Media))
		copy(media, *u.Media)
		r.Media = media
	}
	if u.AssignedTo != nil {
		r.AssignedTo = *u.AssignedTo
	}
}
