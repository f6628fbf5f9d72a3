package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Commands
	"command.start": "👋 Hi! I find songs on YouTube and send them to you as audio.\n\n" +
		"Just send me a song title, an artist, or both, e.g. <i>Queen Bohemian Rhapsody</i>.\n" +
		"Files larger than %d MiB can't be sent, but I'll give you a link instead.",
	"command.help": "🎧 <b>How to use</b>\n\n" +
		"1. Send a song title or \"artist - title\"\n" +
		"2. Wait while I search and convert it\n" +
		"3. Receive the audio file\n\n" +
		"You can also send a YouTube link.\n\n" +
		"/start - welcome message\n/help - this help",

	// Request lifecycle
	"request.empty":     "❌ Please send a song title.",
	"request.searching": "🔍 Searching: <b>%s</b>\n⏳ Please wait...",
	"request.found":     "✅ Found: <b>%s</b>\n📤 Sending file...",
	"request.caption":   "🎵 %s\n👤 %s\n💾 %.1f MiB",

	// Errors
	"error.not_found":     "❌ Song not found.",
	"error.too_large":     "❌ File is too large (%.1f MiB). Maximum is %d MiB.",
	"error.not_created":   "❌ The file was not created.",
	"error.generic":       "❌ Something went wrong. Please try again later.",
	"error.fallback_link": "\n\n🔗 You can listen here:\n%s",
}
