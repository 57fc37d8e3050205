package twinput

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twaggregate/internal/domain"
)

var now = time.Date(2021, 7, 23, 20, 0, 0, 0, time.UTC)

const modern = `color: off
debug: on
temp.report.start: 20210723T000000Z
temp.report.end: 20210724T000000Z
temp.report.tags:
verbose: on

[
{"id":2,"start":"20210723T090000Z","end":"20210723T093000Z","tags":["office","project"]},
{"id":1,"start":"20210723T100000Z","tags":["office","other"]}
]
`

func TestParseModern(t *testing.T) {
	in, err := Parse(strings.NewReader(modern), now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2021, 7, 23, 0, 0, 0, 0, time.UTC), in.Window.Start)
	assert.Equal(t, time.Date(2021, 7, 24, 0, 0, 0, 0, time.UTC), in.Window.End)
	assert.True(t, in.Debug())
	assert.Equal(t, "off", in.Settings["color"])
	assert.Equal(t, "", in.Settings["temp.report.tags"])

	require.Len(t, in.Entries, 2)
	assert.Equal(t, 30*time.Minute, in.Entries[0].Duration())
	assert.Equal(t, now, in.Entries[1].End)
	assert.Equal(t, 10*time.Hour, in.Entries[1].Duration())
}

func TestParseLegacyLines(t *testing.T) {
	legacy := "temp.report.start 20210723T183000Z\n" +
		"temp.report.end 20210730T183000Z\n" +
		"{\"id\":2,\"start\":\"20210723T190000Z\",\"end\":\"20210723T191500Z\",\"tags\":[\"a\"]},\n" +
		"{\"id\":1,\"start\":\"20210723T200000Z\",\"end\":\"20210723T201000Z\",\"tags\":[\"b\"]}\n"
	in, err := Parse(strings.NewReader(legacy), now)
	require.NoError(t, err)
	assert.Equal(t, 7, in.Window.Days(time.UTC))
	require.Len(t, in.Entries, 2)
	assert.Equal(t, 15*time.Minute, in.Entries[0].Duration())
	assert.Equal(t, 10*time.Minute, in.Entries[1].Duration())
	assert.False(t, in.Debug())
}

func TestParseNoEntries(t *testing.T) {
	in, err := Parse(strings.NewReader("temp.report.start: 20210723T000000Z\ntemp.report.end: 20210724T000000Z\n\n[\n]\n"), now)
	require.NoError(t, err)
	assert.Empty(t, in.Entries)
}

func TestParseMissingWindow(t *testing.T) {
	for name, input := range map[string]string{
		"nothing":   "",
		"no end":    "temp.report.start: 20210723T000000Z\n\n[]\n",
		"empty end": "temp.report.start: 20210723T000000Z\ntemp.report.end: \n\n[]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input), now)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMissingReportWindow)
			assert.Contains(t, err.Error(), "timewarrior")
		})
	}
}

func TestParseBadWindowTimestamp(t *testing.T) {
	_, err := Parse(strings.NewReader("temp.report.start: yesterday\ntemp.report.end: 20210724T000000Z\n\n[]\n"), now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temp.report.start")
}

func TestParseMalformedEntryIsFatal(t *testing.T) {
	input := "temp.report.start: 20210723T000000Z\ntemp.report.end: 20210724T000000Z\n\n" +
		`[{"start":"20210723T090000Z","end":"20210723T093000Z","tags":["a"]},{"end":"20210723T093000Z","tags":["b"]}]`
	_, err := Parse(strings.NewReader(input), now)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedEntry)
}

func TestParseBrokenBody(t *testing.T) {
	input := "temp.report.start: 20210723T000000Z\ntemp.report.end: 20210724T000000Z\n\n[{\"tags\":"
	_, err := Parse(strings.NewReader(input), now)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedEntry)
}

func TestSplitSetting(t *testing.T) {
	for line, want := range map[string][2]string{
		"debug: on":                 {"debug", "on"},
		"temp.report.start 2021":    {"temp.report.start", "2021"},
		"temp.db: /home/u/.timew":   {"temp.db", "/home/u/.timew"},
		"flag":                      {"flag", ""},
		"reports.day.hours: a: b c": {"reports.day.hours", "a: b c"},
	} {
		k, v := splitSetting(line)
		assert.Equal(t, want, [2]string{k, v}, line)
	}
}
