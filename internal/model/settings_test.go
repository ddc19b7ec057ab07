package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsBagScan(t *testing.T) {
	assert := assert.New(t)

	var bag SettingsBag
	assert.NoError(bag.Scan([]byte(`{"message": false, "payment": true}`)))
	assert.False(bag.MessageEnabled())

	assert.NoError(bag.Scan([]byte(`{"message": true}`)))
	assert.True(bag.MessageEnabled())

	assert.NoError(bag.Scan(nil))
	assert.Nil(bag)

	assert.NoError(bag.Scan(`{"message": false}`))
	assert.False(bag.MessageEnabled())

	assert.Error(bag.Scan(42))
}

func TestSettingsBagFailsOpen(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"absent key", `{"payment": false}`},
		{"empty object", `{}`},
		{"malformed json", `{"message": fal`},
		{"non-boolean value", `{"message": "off"}`},
		{"array instead of object", `["message"]`},
		{"empty blob", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var bag SettingsBag
			if err := bag.Scan([]byte(tc.raw)); err != nil {
				t.Fatalf("scan returned error: %v", err)
			}
			if !bag.MessageEnabled() {
				t.Errorf("expected %q to leave message notifications enabled", tc.raw)
			}
		})
	}
}

func TestSettingsBagNilMeansEnabled(t *testing.T) {
	var bag SettingsBag
	if !bag.MessageEnabled() {
		t.Error("nil bag should mean enabled")
	}
}
