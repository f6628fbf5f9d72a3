package i18n

// russianMessages contains all Russian translations.
var russianMessages = map[string]string{
	// Commands
	"command.start": "👋 Привет! Я ищу песни на YouTube и присылаю их в виде аудио.\n\n" +
		"Просто отправьте название песни, исполнителя или и то и другое, например <i>Кино Группа крови</i>.\n" +
		"Файлы больше %d МБ отправить нельзя, но я пришлю ссылку.",
	"command.help": "🎧 <b>Как пользоваться</b>\n\n" +
		"1. Отправьте название песни или \"исполнитель - название\"\n" +
		"2. Подождите, пока я найду и сконвертирую её\n" +
		"3. Получите аудиофайл\n\n" +
		"Можно также отправить ссылку на YouTube.\n\n" +
		"/start - приветствие\n/help - эта справка",

	// Request lifecycle
	"request.empty":     "❌ Пожалуйста, отправьте название песни.",
	"request.searching": "🔍 Ищу: <b>%s</b>\n⏳ Пожалуйста, подождите...",
	"request.found":     "✅ Найдено: <b>%s</b>\n📤 Отправляю файл...",
	"request.caption":   "🎵 %s\n👤 %s\n💾 %.1f МБ",

	// Errors
	"error.not_found":     "❌ Песня не найдена.",
	"error.too_large":     "❌ Файл слишком большой (%.1f МБ). Максимум %d МБ.",
	"error.not_created":   "❌ Файл не был создан.",
	"error.generic":       "❌ Произошла ошибка. Попробуйте позже.",
	"error.fallback_link": "\n\n🔗 Вы можете послушать здесь:\n%s",
}
