package i18n

import "github.com/prastut/wedding-jarvis-sub000/internal/models"

const (
	en = models.LanguageEnglish
	hi = models.LanguageHindi
	pa = models.LanguagePunjabi
)

// DefaultMessages is the guest-facing copy shipped with the bot
var DefaultMessages = map[string]Text{
	"language.prompt": {
		en: "🙏 Welcome to the wedding of {couple}!\n\nPlease choose your language.\nकृपया अपनी भाषा चुनें।\nਕਿਰਪਾ ਕਰਕੇ ਆਪਣੀ ਭਾਸ਼ਾ ਚੁਣੋ।",
	},
	"side.prompt": {
		en: "Whose side are you joining us from?",
		hi: "आप किस पक्ष से हमारे साथ जुड़ रहे हैं?",
		pa: "ਤੁਸੀਂ ਕਿਸ ਪਾਸਿਓਂ ਸਾਡੇ ਨਾਲ ਜੁੜ ਰਹੇ ਹੋ?",
	},
	"side.groom": {en: "Groom's side", hi: "वर पक्ष", pa: "ਲਾੜੇ ਵੱਲੋਂ"},
	"side.bride": {en: "Bride's side", hi: "वधू पक्ष", pa: "ਲਾੜੀ ਵੱਲੋਂ"},
	"side.both":  {en: "Both", hi: "दोनों", pa: "ਦੋਵੇਂ"},
	"onboarding.done": {
		en: "🎉 Thank you! You're all set.",
		hi: "🎉 धन्यवाद! आपकी जानकारी सहेज ली गई है।",
		pa: "🎉 ਧੰਨਵਾਦ! ਤੁਹਾਡੀ ਜਾਣਕਾਰੀ ਸੰਭਾਲ ਲਈ ਗਈ ਹੈ।",
	},
	"menu.header":  {en: "{couple}"},
	"menu.body":    {en: "How can I help you?", hi: "मैं आपकी कैसे मदद कर सकता हूँ?", pa: "ਮੈਂ ਤੁਹਾਡੀ ਕਿਵੇਂ ਮਦਦ ਕਰ ਸਕਦਾ ਹਾਂ?"},
	"menu.button":  {en: "Menu", hi: "मेन्यू", pa: "ਮੀਨੂ"},
	"menu.section": {en: "Wedding info", hi: "शादी की जानकारी", pa: "ਵਿਆਹ ਦੀ ਜਾਣਕਾਰੀ"},
	"menu.actions": {en: "More", hi: "और", pa: "ਹੋਰ"},

	"menu.schedule":       {en: "Schedule", hi: "कार्यक्रम", pa: "ਪ੍ਰੋਗਰਾਮ"},
	"menu.schedule.desc":  {en: "Events, dates and times", hi: "समारोह, तारीख और समय", pa: "ਸਮਾਗਮ, ਤਾਰੀਖ ਅਤੇ ਸਮਾਂ"},
	"menu.venue":          {en: "Venues", hi: "स्थान", pa: "ਸਥਾਨ"},
	"menu.venue.desc":     {en: "Addresses and directions", hi: "पता और रास्ता", pa: "ਪਤਾ ਅਤੇ ਰਸਤਾ"},
	"menu.dress":          {en: "Dress code", hi: "ड्रेस कोड", pa: "ਡਰੈੱਸ ਕੋਡ"},
	"menu.dress.desc":     {en: "What to wear", hi: "क्या पहनें", pa: "ਕੀ ਪਹਿਨਣਾ ਹੈ"},
	"menu.faq":            {en: "FAQ", hi: "सामान्य प्रश्न", pa: "ਆਮ ਸਵਾਲ"},
	"menu.faq.desc":       {en: "Common questions", hi: "अक्सर पूछे जाने वाले प्रश्न"},
	"menu.rsvp":           {en: "RSVP", hi: "उपस्थिति", pa: "ਹਾਜ਼ਰੀ"},
	"menu.rsvp.desc":      {en: "Tell us if you're coming", hi: "बताएं कि आप आ रहे हैं", pa: "ਦੱਸੋ ਕਿ ਤੁਸੀਂ ਆ ਰਹੇ ਹੋ"},
	"menu.emergency":      {en: "Contacts", hi: "संपर्क", pa: "ਸੰਪਰਕ"},
	"menu.emergency.desc": {en: "Who to call", hi: "किसे फ़ोन करें", pa: "ਕਿਸ ਨੂੰ ਫ਼ੋਨ ਕਰਨਾ ਹੈ"},
	"menu.gifts":          {en: "Gifts", hi: "उपहार", pa: "ਤੋਹਫ਼ੇ"},
	"menu.gifts.desc":     {en: "Gift information", hi: "उपहार की जानकारी"},
	"menu.reset":          {en: "Change language", hi: "भाषा बदलें", pa: "ਭਾਸ਼ਾ ਬਦਲੋ"},
	"menu.reset.desc":     {en: "Language and side", hi: "भाषा और पक्ष", pa: "ਭਾਸ਼ਾ ਅਤੇ ਪਾਸਾ"},
	"menu.back":           {en: "⬅️ Menu", hi: "⬅️ मेन्यू", pa: "⬅️ ਮੀਨੂ"},
	"menu.back.prompt":    {en: "Anything else?", hi: "और कुछ?", pa: "ਹੋਰ ਕੁਝ?"},

	"content.unavailable": {
		en: "This information is not available yet. Please check back soon.",
		hi: "यह जानकारी अभी उपलब्ध नहीं है। कृपया बाद में देखें।",
		pa: "ਇਹ ਜਾਣਕਾਰੀ ਹਾਲੇ ਉਪਲਬਧ ਨਹੀਂ ਹੈ। ਕਿਰਪਾ ਕਰਕੇ ਬਾਅਦ ਵਿੱਚ ਵੇਖੋ।",
	},
	"schedule.title":  {en: "📅 *Schedule*", hi: "📅 *कार्यक्रम*", pa: "📅 *ਪ੍ਰੋਗਰਾਮ*"},
	"venue.title":     {en: "📍 *Venues*", hi: "📍 *स्थान*", pa: "📍 *ਸਥਾਨ*"},
	"venue.parking":   {en: "Parking", hi: "पार्किंग", pa: "ਪਾਰਕਿੰਗ"},
	"dress.title":     {en: "👗 *Dress code*", hi: "👗 *ड्रेस कोड*", pa: "👗 *ਡਰੈੱਸ ਕੋਡ*"},
	"faq.title":       {en: "❓ *FAQ*", hi: "❓ *सामान्य प्रश्न*", pa: "❓ *ਆਮ ਸਵਾਲ*"},
	"emergency.title": {en: "☎️ *Contacts*", hi: "☎️ *संपर्क*", pa: "☎️ *ਸੰਪਰਕ*"},
	"gifts.title":     {en: "🎁 *Gifts*", hi: "🎁 *उपहार*", pa: "🎁 *ਤੋਹਫ਼ੇ*"},

	"rsvp.prompt": {
		en: "Will you be joining us on {date}?",
		hi: "क्या आप {date} को हमारे साथ होंगे?",
		pa: "ਕੀ ਤੁਸੀਂ {date} ਨੂੰ ਸਾਡੇ ਨਾਲ ਹੋਵੋਗੇ?",
	},
	"rsvp.current": {
		en: "Your current answer: {answer}",
		hi: "आपका मौजूदा उत्तर: {answer}",
	},
	"rsvp.yes": {en: "Yes, attending", hi: "हाँ, आ रहे हैं", pa: "ਹਾਂ, ਆ ਰਹੇ ਹਾਂ"},
	"rsvp.no":  {en: "Can't make it", hi: "नहीं आ पाएंगे", pa: "ਨਹੀਂ ਆ ਸਕਾਂਗੇ"},
	"rsvp.count.prompt": {
		en: "Wonderful! How many people, including you, will attend?",
		hi: "बहुत बढ़िया! आपको मिलाकर कितने लोग आएंगे?",
		pa: "ਬਹੁਤ ਵਧੀਆ! ਤੁਹਾਨੂੰ ਮਿਲਾ ਕੇ ਕਿੰਨੇ ਲੋਕ ਆਉਣਗੇ?",
	},
	"rsvp.count.button":  {en: "Select", hi: "चुनें", pa: "ਚੁਣੋ"},
	"rsvp.count.section": {en: "Guests", hi: "मेहमान", pa: "ਮਹਿਮਾਨ"},
	"rsvp.confirm.attending": {
		en: "✅ Confirmed: {count} attending.",
		hi: "✅ पुष्टि हुई: {count} लोग आ रहे हैं।",
		pa: "✅ ਪੁਸ਼ਟੀ ਹੋਈ: {count} ਲੋਕ ਆ ਰਹੇ ਹਨ।",
	},
	"rsvp.confirm.declined": {
		en: "We've noted that you can't make it. We'll miss you!",
		hi: "हमने नोट कर लिया है कि आप नहीं आ पाएंगे। हम आपको याद करेंगे!",
		pa: "ਅਸੀਂ ਨੋਟ ਕਰ ਲਿਆ ਹੈ ਕਿ ਤੁਸੀਂ ਨਹੀਂ ਆ ਸਕੋਗੇ। ਅਸੀਂ ਤੁਹਾਨੂੰ ਯਾਦ ਕਰਾਂਗੇ!",
	},
	"rsvp.thanks": {
		en: "Thank you for letting us know! 💕",
		hi: "बताने के लिए धन्यवाद! 💕",
		pa: "ਦੱਸਣ ਲਈ ਧੰਨਵਾਦ! 💕",
	},

	"optout.confirm": {
		en: "You won't receive any more updates. Reply START to subscribe again.",
		hi: "अब आपको अपडेट नहीं भेजे जाएंगे। फिर से जुड़ने के लिए START भेजें।",
		pa: "ਹੁਣ ਤੁਹਾਨੂੰ ਅੱਪਡੇਟ ਨਹੀਂ ਭੇਜੇ ਜਾਣਗੇ। ਦੁਬਾਰਾ ਜੁੜਨ ਲਈ START ਭੇਜੋ।",
	},
	"optin.confirm": {
		en: "Welcome back! You'll receive wedding updates again.",
		hi: "फिर से स्वागत है! अब आपको शादी के अपडेट मिलेंगे।",
		pa: "ਮੁੜ ਜੀ ਆਇਆਂ ਨੂੰ! ਹੁਣ ਤੁਹਾਨੂੰ ਵਿਆਹ ਦੇ ਅੱਪਡੇਟ ਮਿਲਣਗੇ।",
	},
	"postevent.thanks": {
		en: "Thank you for celebrating with us! 💕",
		hi: "हमारे साथ जश्न मनाने के लिए धन्यवाद! 💕",
		pa: "ਸਾਡੇ ਨਾਲ ਜਸ਼ਨ ਮਨਾਉਣ ਲਈ ਧੰਨਵਾਦ! 💕",
	},
	"error.apology": {
		en: "Sorry, something went wrong on our side. Please try again in a moment.",
		hi: "क्षमा करें, कुछ गड़बड़ हो गई। कृपया थोड़ी देर बाद फिर कोशिश करें।",
		pa: "ਮਾਫ਼ ਕਰਨਾ, ਕੁਝ ਗੜਬੜ ਹੋ ਗਈ। ਕਿਰਪਾ ਕਰਕੇ ਥੋੜ੍ਹੀ ਦੇਰ ਬਾਅਦ ਦੁਬਾਰਾ ਕੋਸ਼ਿਸ਼ ਕਰੋ।",
	},
}

// Default returns a bundle with DefaultMessages
func Default(base models.Language) *Bundle {
	return NewBundle(base, DefaultMessages)
}
