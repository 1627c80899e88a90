package itinerary

import "github.com/pbaille/trip/internal/domain"

// DefaultSpots is inserted once when the remote table is found empty
var DefaultSpots = []domain.NewSpot{
	{
		Name:        "Chihkan Tower",
		Description: "The city's signature landmark, built on the site of the Dutch Fort Provintia.",
		Notes:       "Photograph the nine stone turtles by the main entrance.",
		Images: []string{
			"https://picsum.photos/seed/chihkan1/800/600",
			"https://picsum.photos/seed/chihkan2/800/600",
			"https://picsum.photos/seed/chihkan3/800/600",
		},
		Lat:          22.9975,
		Lng:          120.2025,
		Day:          domain.Day1,
		Tags:         []string{"heritage", "arts"},
		OpeningHours: "08:30 - 21:30",
		Address:      "No. 212, Sec. 2, Minzu Rd, West Central District, Tainan",
	},
	{
		Name:        "Shennong Street",
		Description: "Once the busiest street of the Five Canals area, now a lane of studios and small shops.",
		Notes:       "Best after dark when the lanterns are lit.",
		Images: []string{
			"https://picsum.photos/seed/shennong1/800/600",
			"https://picsum.photos/seed/shennong2/800/600",
		},
		Lat:          22.9979,
		Lng:          120.1966,
		Day:          domain.Day1,
		Tags:         []string{"shopping", "arts"},
		OpeningHours: domain.OpenAllDay,
		Address:      "Shennong St, West Central District, Tainan",
	},
	{
		Name:         "A-Cun Beef Soup",
		Description:  "The beef soup locals queue for.",
		Notes:        "The queue starts around 5am and it closes when sold out.",
		Images:       []string{"https://picsum.photos/seed/beefsoup1/800/600"},
		Lat:          22.9934,
		Lng:          120.1977,
		Day:          domain.Day1,
		Tags:         []string{"food"},
		OpeningHours: "04:00 - 10:00",
		Address:      "No. 41, Bao'an Rd, West Central District, Tainan",
	},
	{
		Name:        "Anping Tree House",
		Description: "A former merchant warehouse overgrown by banyan roots.",
		Notes:       "The ticket also covers the memorial hall next door.",
		Images: []string{
			"https://picsum.photos/seed/treehouse1/800/600",
			"https://picsum.photos/seed/treehouse2/800/600",
		},
		Lat:          23.0031,
		Lng:          120.1594,
		Day:          domain.Day2,
		Tags:         []string{"heritage", "arts"},
		OpeningHours: "08:30 - 17:30",
		Address:      "No. 108, Gubao St, Anping District, Tainan",
	},
	{
		Name:        "Hayashi Department Store",
		Description: "The only department store on the island with a rooftop shrine, dating from 1932.",
		Notes:       "Take the needle-dial elevator up to the shrine ruins on the roof.",
		Images: []string{
			"https://picsum.photos/seed/hayashi1/800/600",
			"https://picsum.photos/seed/hayashi2/800/600",
		},
		Lat:          22.9918,
		Lng:          120.2023,
		Day:          domain.Day2,
		Tags:         []string{"shopping", "souvenirs"},
		OpeningHours: "11:00 - 21:00",
		Address:      "No. 63, Sec. 2, Zhongyi Rd, West Central District, Tainan",
	},
	{
		Name:        "Chimei Museum",
		Description: "Western classical architecture and one of the largest private collections in the country.",
		Notes:       "The Apollo fountain has scheduled water shows.",
		Images: []string{
			"https://picsum.photos/seed/chimei1/800/600",
			"https://picsum.photos/seed/chimei2/800/600",
		},
		Lat:          22.9348,
		Lng:          120.2260,
		Day:          domain.Other,
		Tags:         []string{"arts"},
		OpeningHours: "09:30 - 17:30 (closed Wed)",
		Address:      "No. 66, Sec. 2, Wenhua Rd, Rende District, Tainan",
	},
}

// SeedRows builds the insert rows for the default spots, ordered by index
func SeedRows() []domain.Row {
	rows := make([]domain.Row, len(DefaultSpots))
	for i, s := range DefaultSpots {
		rows[i] = domain.NewRow(s, i)
	}
	return rows
}
