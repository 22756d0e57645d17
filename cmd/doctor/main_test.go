package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFmtDuration(t *testing.T) {
	assert.Equal(t, "0:00", fmtDuration(0))
	assert.Equal(t, "0:59", fmtDuration(59*time.Second))
	assert.Equal(t, "4:05", fmtDuration(4*time.Minute+5*time.Second))
	assert.Equal(t, "61:07", fmtDuration(61*time.Minute+7*time.Second))
}

func TestFmtSize(t *testing.T) {
	assert.Equal(t, "0.0 MB", fmtSize(0))
	assert.Equal(t, "1.0 MB", fmtSize(1<<20))
	assert.Equal(t, "2.5 MB", fmtSize(5<<19))
	assert.Equal(t, "512.0 MB", fmtSize(1<<29))
}
