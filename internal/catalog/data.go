package catalog

// Built-in library data. Kept small and deterministic; a real deployment
// would load these from a database.

var voiceLibrary = []Voice{
	{
		ID: "en-US-JennyNeural", Name: "Jenny", Language: "English (US)",
		Locale: "en-US", Gender: "female", Style: "conversational",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/jenny-sample.mp3",
		Description: "Clear American English voice",
	},
	{
		ID: "en-US-GuyNeural", Name: "Guy", Language: "English (US)",
		Locale: "en-US", Gender: "male", Style: "narration",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/guy-sample.mp3",
		Description: "Professional American English voice",
	},
	{
		ID: "en-US-AriaNeural", Name: "Aria", Language: "English (US)",
		Locale: "en-US", Gender: "female", Style: "cheerful",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/aria-sample.mp3",
		Description: "Bright and energetic voice",
	},
	{
		ID: "en-GB-SoniaNeural", Name: "Sonia", Language: "English (UK)",
		Locale: "en-GB", Gender: "female", Style: "narration",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/sonia-sample.mp3",
		Description: "British English voice",
	},
	{
		ID: "ja-JP-NanamiNeural", Name: "Nanami", Language: "Japanese",
		Locale: "ja-JP", Gender: "female", Style: "conversational",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/nanami-sample.mp3",
		Description: "Natural Japanese voice",
	},
	{
		ID: "ja-JP-KeitaNeural", Name: "Keita", Language: "Japanese",
		Locale: "ja-JP", Gender: "male", Style: "narration",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/keita-sample.mp3",
		Description: "Professional Japanese voice",
	},
	{
		ID: "ne-NP-HemkalaNeural", Name: "Hemkala", Language: "Nepali",
		Locale: "ne-NP", Gender: "female", Style: "calm",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/hemkala-sample.mp3",
		Description: "Nepali voice",
	},
	{
		ID: "hi-IN-SwaraNeural", Name: "Swara", Language: "Hindi",
		Locale: "hi-IN", Gender: "female", Style: "conversational",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/swara-sample.mp3",
		Description: "Hindi voice",
	},
	{
		ID: "id-ID-GadisNeural", Name: "Gadis", Language: "Indonesian",
		Locale: "id-ID", Gender: "female", Style: "conversational",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/gadis-sample.mp3",
		Description: "Indonesian voice",
	},
	{
		ID: "th-TH-PremwadeeNeural", Name: "Premwadee", Language: "Thai",
		Locale: "th-TH", Gender: "female", Style: "calm",
		Provider: "azure",
		SampleURL:   "https://cdn.videoforge.dev/voices/premwadee-sample.mp3",
		Description: "Thai voice",
	},
	{
		ID: "elevenlabs-adam", Name: "Adam", Language: "English (US)",
		Locale: "en-US", Gender: "male", Style: "narration",
		Provider: "elevenlabs", Premium: true,
		SampleURL:   "https://cdn.videoforge.dev/voices/adam-sample.mp3",
		Description: "High-quality expressive voice",
	},
	{
		ID: "elevenlabs-bella", Name: "Bella", Language: "English (US)",
		Locale: "en-US", Gender: "female", Style: "conversational",
		Provider: "elevenlabs", Premium: true,
		SampleURL:   "https://cdn.videoforge.dev/voices/bella-sample.mp3",
		Description: "Natural conversational voice",
	},
}

var avatarLibrary = []Avatar{
	{
		ID: "avatar-amy", Name: "Amy", Gender: "female",
		Thumbnail:   "https://cdn.videoforge.dev/avatars/amy-thumb.jpg",
		VideoURL:    "https://cdn.videoforge.dev/avatars/amy-preview.mp4",
		Description: "Professional business woman",
		Tags:        []string{"business", "professional", "corporate"},
	},
	{
		ID: "avatar-alyssa", Name: "Alyssa", Gender: "female",
		Thumbnail:   "https://cdn.videoforge.dev/avatars/alyssa-thumb.jpg",
		VideoURL:    "https://cdn.videoforge.dev/avatars/alyssa-preview.mp4",
		Description: "Friendly and approachable",
		Tags:        []string{"casual", "friendly", "young"},
	},
	{
		ID: "avatar-anita", Name: "Anita", Gender: "female",
		Thumbnail:   "https://cdn.videoforge.dev/avatars/anita-thumb.jpg",
		VideoURL:    "https://cdn.videoforge.dev/avatars/anita-preview.mp4",
		Description: "Mature and confident",
		Tags:        []string{"mature", "confident", "executive"},
	},
	{
		ID: "avatar-alex", Name: "Alex", Gender: "male",
		Thumbnail:   "https://cdn.videoforge.dev/avatars/alex-thumb.jpg",
		VideoURL:    "https://cdn.videoforge.dev/avatars/alex-preview.mp4",
		Description: "Tech-savvy presenter",
		Tags:        []string{"tech", "casual", "young"},
	},
	{
		ID: "avatar-daniel", Name: "Daniel", Gender: "male",
		Thumbnail:   "https://cdn.videoforge.dev/avatars/daniel-thumb.jpg",
		VideoURL:    "https://cdn.videoforge.dev/avatars/daniel-preview.mp4",
		Description: "Professional executive",
		Tags:        []string{"business", "executive", "mature"},
	},
}

var audioLibrary = []AudioTrack{
	{
		ID: "audio-001", Title: "Upbeat Corporate", Category: "music",
		Duration:  180.0,
		URL:       "https://cdn.videoforge.dev/audio/upbeat-corporate.mp3",
		Thumbnail: "https://cdn.videoforge.dev/thumbnails/audio-001.jpg",
		Artist:    "AudioHub",
		Tags:      []string{"corporate", "upbeat", "motivational"},
	},
	{
		ID: "audio-002", Title: "Chill Lofi Beat", Category: "music",
		Duration:  240.0,
		URL:       "https://cdn.videoforge.dev/audio/chill-lofi.mp3",
		Thumbnail: "https://cdn.videoforge.dev/thumbnails/audio-002.jpg",
		Artist:    "LofiBeats",
		Tags:      []string{"lofi", "chill", "relaxing"},
	},
	{
		ID: "audio-003", Title: "Epic Cinematic", Category: "music",
		Duration:  200.0,
		URL:       "https://cdn.videoforge.dev/audio/epic-cinematic.mp3",
		Thumbnail: "https://cdn.videoforge.dev/thumbnails/audio-003.jpg",
		Artist:    "CinematicSounds",
		Tags:      []string{"epic", "cinematic", "dramatic"},
	},
	{
		ID: "audio-004", Title: "Success Notification", Category: "sound_effect",
		Duration:  2.5,
		URL:       "https://cdn.videoforge.dev/audio/success-notification.mp3",
		Thumbnail: "https://cdn.videoforge.dev/thumbnails/audio-004.jpg",
		Tags:      []string{"notification", "success", "ding"},
	},
	{
		ID: "audio-005", Title: "Whoosh Transition", Category: "sound_effect",
		Duration:  1.2,
		URL:       "https://cdn.videoforge.dev/audio/whoosh.mp3",
		Thumbnail: "https://cdn.videoforge.dev/thumbnails/audio-005.jpg",
		Tags:      []string{"transition", "whoosh", "swipe"},
	},
}

var mediaLibrary = []MediaAsset{
	{
		ID: "media-001", Title: "Mountain Landscape", Type: "image",
		URL:       "https://cdn.videoforge.dev/media/mountain.jpg",
		Thumbnail: "https://cdn.videoforge.dev/media/mountain-thumb.jpg",
		Width:     1920, Height: 1080, Source: "stock",
		Tags: []string{"nature", "mountain", "landscape"},
	},
	{
		ID: "media-002", Title: "City Skyline", Type: "image",
		URL:       "https://cdn.videoforge.dev/media/city.jpg",
		Thumbnail: "https://cdn.videoforge.dev/media/city-thumb.jpg",
		Width:     1920, Height: 1080, Source: "stock",
		Tags: []string{"city", "urban", "skyline"},
	},
	{
		ID: "media-003", Title: "Ocean Waves", Type: "video",
		URL:       "https://cdn.videoforge.dev/media/ocean.mp4",
		Thumbnail: "https://cdn.videoforge.dev/media/ocean-thumb.jpg",
		Width:     1920, Height: 1080, Duration: 15.0, Source: "stock",
		Tags: []string{"ocean", "water", "nature"},
	},
	{
		ID: "media-004", Title: "Tech Background", Type: "image",
		URL:       "https://cdn.videoforge.dev/media/tech-bg.jpg",
		Thumbnail: "https://cdn.videoforge.dev/media/tech-bg-thumb.jpg",
		Width:     1920, Height: 1080, Source: "ai",
		Tags: []string{"technology", "abstract", "background"},
	},
	{
		ID: "media-005", Title: "Time Lapse City", Type: "video",
		URL:       "https://cdn.videoforge.dev/media/timelapse-city.mp4",
		Thumbnail: "https://cdn.videoforge.dev/media/timelapse-thumb.jpg",
		Width:     1920, Height: 1080, Duration: 20.0, Source: "stock",
		Tags: []string{"timelapse", "city", "night"},
	},
}

var platformPresets = []Platform{
	{
		ID: "tiktok", Name: "TikTok",
		Description: "Short-form viral videos",
		AspectRatio: "9:16", MaxDuration: 180, OptimalDuration: 30,
		Resolution: "1080x1920",
		Features:   []string{"trending_sounds", "effects", "duets"},
	},
	{
		ID: "youtube", Name: "YouTube",
		Description: "Long-form content",
		AspectRatio: "16:9", OptimalDuration: 600,
		Resolution: "1920x1080",
		Features:   []string{"chapters", "end_screens", "cards"},
	},
	{
		ID: "youtube_shorts", Name: "YouTube Shorts",
		Description: "Short vertical videos",
		AspectRatio: "9:16", MaxDuration: 60, OptimalDuration: 30,
		Resolution: "1080x1920",
		Features:   []string{"shorts_shelf", "quick_creation"},
	},
	{
		ID: "instagram_reels", Name: "Instagram Reels",
		Description: "Short entertaining videos",
		AspectRatio: "9:16", MaxDuration: 90, OptimalDuration: 30,
		Resolution: "1080x1920",
		Features:   []string{"music", "effects", "explore"},
	},
	{
		ID: "instagram_stories", Name: "Instagram Stories",
		Description: "24-hour temporary content",
		AspectRatio: "9:16", MaxDuration: 15, OptimalDuration: 15,
		Resolution: "1080x1920",
		Features:   []string{"stickers", "polls", "questions"},
	},
	{
		ID: "facebook", Name: "Facebook",
		Description: "Social media videos",
		AspectRatio: "16:9", OptimalDuration: 120,
		Resolution: "1920x1080",
		Features:   []string{"live", "watch", "stories"},
	},
}

var visualStyles = []VisualStyle{
	{ID: "stock", Name: "Stock Footage", Description: "Professional stock video clips"},
	{ID: "ai_generated", Name: "AI Generated", Description: "AI-generated visuals and animations", Premium: true},
	{ID: "template", Name: "Template", Description: "Pre-designed video templates"},
	{ID: "slideshow", Name: "Slideshow", Description: "Image slideshow with transitions"},
	{ID: "text_animation", Name: "Text Animation", Description: "Animated text and typography"},
}
