package arr

import "fmt"

// appProfile captures the per-application API differences: base path,
// command names, and the id list field expected by the search command.
type appProfile struct {
	apiBase        string
	missingSort    string
	searchCommand  string
	searchIDsField string
	refreshCommand string
	refreshIDField string
}

var profiles = map[AppKind]appProfile{
	AppSonarr: {
		apiBase:        "/api/v3",
		missingSort:    "airDateUtc",
		searchCommand:  "EpisodeSearch",
		searchIDsField: "episodeIds",
		refreshCommand: "RefreshSeries",
		refreshIDField: "seriesId",
	},
	AppRadarr: {
		apiBase:        "/api/v3",
		missingSort:    "movies.sortTitle",
		searchCommand:  "MoviesSearch",
		searchIDsField: "movieIds",
		refreshCommand: "RefreshMovie",
		refreshIDField: "movieIds",
	},
	AppLidarr: {
		apiBase:        "/api/v1",
		missingSort:    "albums.title",
		searchCommand:  "AlbumSearch",
		searchIDsField: "albumIds",
		refreshCommand: "RefreshArtist",
		refreshIDField: "artistId",
	},
	AppReadarr: {
		apiBase:        "/api/v1",
		missingSort:    "books.title",
		searchCommand:  "BookSearch",
		searchIDsField: "bookIds",
		refreshCommand: "RefreshAuthor",
		refreshIDField: "authorId",
	},
	AppWhisparr: {
		apiBase:        "/api/v3",
		missingSort:    "airDateUtc",
		searchCommand:  "EpisodeSearch",
		searchIDsField: "episodeIds",
		refreshCommand: "RefreshSeries",
		refreshIDField: "seriesId",
	},
}

func profileFor(kind AppKind) (appProfile, error) {
	profile, ok := profiles[kind]
	if !ok {
		return appProfile{}, fmt.Errorf("unsupported app kind %q", kind)
	}
	return profile, nil
}
