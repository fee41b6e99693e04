package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFieldExtractor_Email(t *testing.T) {
	e := NewFieldExtractor()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"standard", "Contact us at counseling@osu.edu for help", "counseling@osu.edu"},
		{"subdomain", "Email help@caps.ucla.edu", "help@caps.ucla.edu"},
		{"plus addressing", "Send to caps+intake@uc.edu.", "caps+intake@uc.edu"},
		{"numbers", "user123@school2.edu", "user123@school2.edu"},
		{"multiple returns first", "a@first.edu then b@second.edu", "a@first.edu"},
		{"no tld", "user@localhost", ""},
		{"none", "No email here", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Email(tt.text))
		})
	}
}

func TestFieldExtractor_Phone(t *testing.T) {
	e := NewFieldExtractor()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"parentheses", "Main: (614) 292-5766", "(614) 292-5766"},
		{"dashes", "Call 614-292-5766", "614-292-5766"},
		{"dots", "Call 614.292.5766", "614.292.5766"},
		{"no separators", "Call 6142925766 today", "6142925766"},
		{"spaces", "Call 614 292 5766", "614 292 5766"},
		{"country code", "Call +1-614-292-5766", "+1-614-292-5766"},
		{"first match only", "Call us at 614-292-5766, Fax 614-292-0000", "614-292-5766"},
		{"too short", "Dial 555-1234", ""},
		{"none", "No phone here", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Phone(tt.text))
		})
	}
}

func TestFieldExtractor_OfficeHours(t *testing.T) {
	e := NewFieldExtractor()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"standard", "Hours: Monday-Friday 8:00 AM - 5:00 PM.", "Monday-Friday 8:00 AM - 5:00 PM"},
		{"abbreviated", "Mon-Fri 9:00 AM to 4:30 PM", "Mon-Fri 9:00 AM to 4:30 PM"},
		{"trailing text", "Monday-Friday 8:00 AM - 5:00 PM, 24/7 Crisis Line", "Monday-Friday 8:00 AM - 5:00 PM"},
		{"bare am pm", "Open Tuesday 9am until 4pm; closed weekends", "Tuesday 9am until 4pm"},
		{"clock only", "Wednesday drop-in starts at 13:30", "Wednesday drop-in starts at 13:30"},
		{"dotted markers", "Monday - Friday, 8:00 a.m. - 5:00 p.m. Closed on holidays.", "Monday - Friday, 8:00 a.m. - 5:00 p.m."},
		{"dotted bare", "Thursday 9 a.m. to 2 p.m.", "Thursday 9 a.m. to 2 p.m."},
		{"weekday without time", "Visit us Monday for details", ""},
		{"no weekday", "Visit our office for details", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.OfficeHours(tt.text))
		})
	}
}

func TestFieldExtractor_Location(t *testing.T) {
	e := NewFieldExtractor()

	tests := []struct {
		text     string
		contains string
	}{
		{"Located in Room 320, Student Center, Main Campus", "Room 320"},
		{"Visit us at building A, second floor wing", "building A"},
		{"We are in Hall of Science, 2nd Floor, West Wing", "Hall of Science"},
		{"Located on Floor 4, Student Services Building", "Floor 4"},
		{"Our office is Suite 530 in the Clifton Court Building", "Suite 530"},
		{"Visit the Center for Student Wellness on campus", "Center for Student Wellness"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			assert.Contains(t, e.Location(tt.text), tt.contains)
		})
	}

	assert.Empty(t, e.Location("Call us for more information about our services"))
	assert.Empty(t, e.Location(""))
	assert.LessOrEqual(t, len(e.Location("Room "+strings.Repeat("b", 400))), 200)
}

func TestFieldExtractor_FreshmanNotes(t *testing.T) {
	e := NewFieldExtractor()

	assert.Contains(t, e.FreshmanNotes("All services are available. Freshman students receive priority scheduling during fall."), "Freshman students")
	assert.Contains(t, e.FreshmanNotes("We offer workshops. First-year students can attend special orientation sessions."), "First-year")
	assert.Contains(t, e.FreshmanNotes("Resources for everyone. New student orientation includes mental health info."), "New student")
	assert.Empty(t, e.FreshmanNotes("General counseling services available to all."))
	assert.Empty(t, e.FreshmanNotes(""))
}

func TestFieldExtractor_FreshmanWindow(t *testing.T) {
	e := NewFieldExtractor()
	text := strings.Repeat("a", 150) + " incoming students " + strings.Repeat("b", 400)

	note := e.FreshmanNotes(text)

	assert.True(t, strings.HasPrefix(note, strings.Repeat("a", 99)))
	assert.Contains(t, note, "incoming students")
	assert.Less(t, len(note), 401)
}

func TestFieldExtractor_FreshmanWindowCountsCharacters(t *testing.T) {
	e := NewFieldExtractor()
	text := strings.Repeat("é", 150) + "freshman" + strings.Repeat("ü", 400)

	note := e.FreshmanNotes(text)

	assert.Equal(t, strings.Repeat("é", 100)+"freshman"+strings.Repeat("ü", 292), note)
	assert.Equal(t, 400, utf8.RuneCountInString(note))
}

func TestFieldExtractor_Extract(t *testing.T) {
	e := NewFieldExtractor()
	text := "Reach   CAPS at caps@osu.edu or (614) 292-5766.\nOpen Monday-Friday 8:00 AM - 5:00 PM. Room 4, Younkin Success Center. First-year students welcome."

	f := e.Extract(text)

	assert.Equal(t, "caps@osu.edu", f.Email)
	assert.Equal(t, "(614) 292-5766", f.Phone)
	assert.Equal(t, "Monday-Friday 8:00 AM - 5:00 PM", f.OfficeHours)
	assert.True(t, strings.HasPrefix(f.Location, "Room 4, Younkin Success Center"))
	assert.Contains(t, f.FreshmanNotes, "First-year students welcome.")
	assert.True(t, f.HasContact())
}
