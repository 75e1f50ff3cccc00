package jikan

// Raw API response types (internal)

type itemResponse struct {
	Data *rawEntry `json:"data"`
}

type searchResponse struct {
	Data []rawEntry `json:"data"`
}

type rawEntry struct {
	MalID     int        `json:"mal_id"`
	Title     string     `json:"title"`
	Images    rawImages  `json:"images"`
	Episodes  *int       `json:"episodes"`
	Chapters  *int       `json:"chapters"`
	Status    string     `json:"status"`
	Year      *int       `json:"year"`
	Aired     *rawPeriod `json:"aired"`
	Published *rawPeriod `json:"published"`
	Synopsis  string     `json:"synopsis"`
}

type rawImages struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
}

type rawPeriod struct {
	Prop struct {
		From struct {
			Year *int `json:"year"`
		} `json:"from"`
	} `json:"prop"`
}

func (p *rawPeriod) fromYear() int {
	if p == nil || p.Prop.From.Year == nil {
		return 0
	}
	return *p.Prop.From.Year
}

func deref(n *int) int {
	if n == nil || *n < 0 {
		return 0
	}
	return *n
}
