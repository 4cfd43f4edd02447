package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Success("done")
	p.Error("failed", errors.New("boom"))
	p.Info("Submissions", "2")

	assert.Equal(t, "done\nfailed: boom\nSubmissions: 2\n", buf.String())
}

func TestPrinterColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.SetColor(true)

	p.Warning("careful")
	assert.Equal(t, yellow+"careful"+reset+"\n", buf.String())
}

func TestPrinterQuiet(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.SetQuiet(true)

	p.Banner()
	p.Success("hidden")
	p.Info("hidden", "too")
	p.Raw("%d\t%s", 11, "image")
	p.Error("shown")

	assert.Equal(t, "11\timage\nshown\n", buf.String())
}

func TestPrinterFieldsAlign(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Fields([]Field{{Label: "ID", Value: "123"}, {Label: "Uploader", Value: "fakeartist"}})
	assert.Equal(t, "ID:       123\nUploader: fakeartist\n", buf.String())
}

func TestPrinterMapSortsAndFillsEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Map(map[string]string{"timezone": "", "email": "me@example.com"})
	assert.Equal(t, "email:    me@example.com\ntimezone: -\n", buf.String())
}
