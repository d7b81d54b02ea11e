package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPolicy() Policy {
	return Policy{
		Zones: []Zone{
			{Name: "Default", Fee: 4000},
			{Name: "Lagos Mainland", Fee: 4000},
			{Name: "Lagos Island", Fee: 6000},
		},
		FreeKeyword: "Covenant University",
		DefaultZone: "Default",
	}
}

func TestFee(t *testing.T) {
	p := testPolicy()

	cases := []struct {
		name     string
		location string
		want     int64
	}{
		{"campus keyword is free", "Covenant University Gate 2", 0},
		{"campus keyword case-insensitive", "hostel B, covenant university", 0},
		{"zone substring match", "Lagos Island Annex", 6000},
		{"zone match case-insensitive", "12 Herbert Macaulay, lagos mainland", 4000},
		{"empty location pays default", "", 4000},
		{"whitespace location pays default", "   ", 4000},
		{"unknown location pays default", "Somewhere Else", 4000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Fee(tc.location))
		})
	}
}

func TestFeeNoDefaultZoneConfigured(t *testing.T) {
	p := Policy{Zones: []Zone{{Name: "Lagos Island", Fee: 6000}}}
	assert.Equal(t, int64(0), p.Fee("nowhere"))
	assert.Equal(t, int64(6000), p.Fee("Lagos Island"))
}
