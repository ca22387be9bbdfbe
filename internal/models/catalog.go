package models

// Aspect ratios accepted by the image backends.
const (
	AspectLandscape = "16:9"
	AspectPortrait  = "9:16"
	AspectSquare    = "1:1"
	AspectSheet     = "3:4"
)

// ValidAspectRatio reports whether r is one of the supported ratios.
func ValidAspectRatio(r string) bool {
	switch r {
	case AspectLandscape, AspectPortrait, AspectSquare, AspectSheet:
		return true
	}
	return false
}

type AspectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Catalog lists the presets offered by the studio front end.
type Catalog struct {
	ArtStyles     []string       `json:"artStyles"`
	Genres        []string       `json:"genres"`
	WritingStyles []string       `json:"writingStyles"`
	StoryLengths  []string       `json:"storyLengths"`
	AspectRatios  []AspectOption `json:"aspectRatios"`
}

var DefaultCatalog = Catalog{
	ArtStyles: []string{
		"Epic Cinematic Anime (Mappa Style)",
		"Ghibli Soft Touch",
		"Cyberpunk Anime 2077",
		"Dark Fantasy Illustration",
		"Vintage 90s Anime",
	},
	Genres: []string{
		"مغامرة ملحمية (Epic Adventure)",
		"خيال مظلم (Dark Fantasy)",
		"خيال علمي (Sci-Fi)",
		"دراما إنسانية (Seinen Drama)",
		"أساطير شعبية (Folklore)",
	},
	WritingStyles: []string{
		"سرد سينمائي (Cinematic Narrative)",
		"أسلوب الروايات المصورة (Manga Style)",
		"شاعري وعاطفي (Poetic)",
		"حوارات كثيفة (Dialogue Heavy)",
	},
	StoryLengths: []string{
		"قصيرة (Short - 3 scenes)",
		"متوسطة (Medium - 6 scenes)",
		"ملحمية (Epic - 10+ scenes)",
	},
	AspectRatios: []AspectOption{
		{Label: "أفقي سينمائي (16:9)", Value: AspectLandscape},
		{Label: "رأسي جوال (9:16)", Value: AspectPortrait},
		{Label: "مربع (1:1)", Value: AspectSquare},
	},
}
