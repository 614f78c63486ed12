package tmdb

// Upstream records are partial: every optional field is a pointer or a
// nil-able slice so that absence is explicit rather than a zero value.

// Movie represents a movie from TMDb list and search results.
type Movie struct {
	ID           int      `json:"id"`
	Title        *string  `json:"title"`
	Overview     *string  `json:"overview"`
	ReleaseDate  *string  `json:"release_date"`
	PosterPath   *string  `json:"poster_path"`
	BackdropPath *string  `json:"backdrop_path"`
	VoteAverage  *float64 `json:"vote_average"`
	GenreIDs     []int    `json:"genre_ids"`
}

// MovieDetails represents GET /movie/{id} with videos and credits appended.
type MovieDetails struct {
	Movie
	Runtime *int       `json:"runtime"`
	Tagline *string    `json:"tagline"`
	Genres  []Genre    `json:"genres"`
	Videos  *videoList `json:"videos"`
	Credits *credits   `json:"credits"`
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Video is an entry of the appended videos list.
type Video struct {
	Key  *string `json:"key"`
	Site *string `json:"site"`
	Type *string `json:"type"`
	Name *string `json:"name"`
}

// CastMember is an entry of credits.cast.
type CastMember struct {
	ID          int     `json:"id"`
	Name        *string `json:"name"`
	Character   *string `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       *int    `json:"order"`
}

// CrewMember is an entry of credits.crew.
type CrewMember struct {
	ID         int     `json:"id"`
	Name       *string `json:"name"`
	Job        *string `json:"job"`
	Department *string `json:"department"`
}

type videoList struct {
	Results []Video `json:"results"`
}

type credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// listResponse is the TMDb paginated list response shared by search,
// popular, now_playing, trending and discover.
type listResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// genreListResponse wraps GET /genre/movie/list.
type genreListResponse struct {
	Genres []Genre `json:"genres"`
}

// errorResponse is the body TMDb returns on failures.
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
