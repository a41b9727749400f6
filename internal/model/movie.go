package model

// Movie is a catalog record.  The JSON names match what existing clients of
// the catalog send and receive, including the `_id` primary key.
type Movie struct {
	ID               string   `json:"_id"`
	MovieID          string   `json:"movieID"`
	Title            string   `json:"title"`
	Studio           string   `json:"studio"`
	Genres           []string `json:"genres"`
	Directors        []string `json:"directors"`
	Writers          []string `json:"writers"`
	Actors           []string `json:"actors"`
	Length           int      `json:"length"`
	Year             int      `json:"year"`
	ShortDescription string   `json:"shortDescription"`
	MPARating        string   `json:"mpaRating"`
	CriticsRating    float64  `json:"criticsRating"`
}

// MovieInput is the request body of add and update.  List-valued fields
// accept either a JSON array or a comma-separated string.
type MovieInput struct {
	MovieID          string    `json:"movieID" form:"movieID"`
	Title            string    `json:"title" form:"title"`
	Studio           string    `json:"studio" form:"studio"`
	Genres           ListInput `json:"genres" form:"genres"`
	Directors        ListInput `json:"directors" form:"directors"`
	Writers          ListInput `json:"writers" form:"writers"`
	Actors           ListInput `json:"actors" form:"actors"`
	Length           int       `json:"length" form:"length"`
	Year             int       `json:"year" form:"year"`
	ShortDescription string    `json:"shortDescription" form:"shortDescription"`
	MPARating        string    `json:"mpaRating" form:"mpaRating"`
	CriticsRating    float64   `json:"criticsRating" form:"criticsRating"`
}

// Movie builds the record for id with every list field normalized.
func (in MovieInput) Movie(id string) Movie {
	return Movie{
		ID:               id,
		MovieID:          in.MovieID,
		Title:            in.Title,
		Studio:           in.Studio,
		Genres:           in.Genres.Normalize(),
		Directors:        in.Directors.Normalize(),
		Writers:          in.Writers.Normalize(),
		Actors:           in.Actors.Normalize(),
		Length:           in.Length,
		Year:             in.Year,
		ShortDescription: in.ShortDescription,
		MPARating:        in.MPARating,
		CriticsRating:    in.CriticsRating,
	}
}
