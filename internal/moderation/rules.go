package moderation

// Built-in rule set. The catalog is rebuilt only on redeploy; rules do not
// change per message or per chat.
//
// The vocabulary targets the promotional spam seen in Russian-language
// group chats: links, easy-money offers, recruiting posts, and "write me
// in DM" call-to-action phrasing. Matching is deliberately high-recall:
// a single hit anywhere in the text is enough.

// literalKeywords is the fast-path keyword list. Every entry also becomes a
// literal signature in the catalog, so the fast path can never flag text the
// full signature pass would not flag.
var literalKeywords = []string{
	"http",
	"www.",
	".com",
	".ru",
	"t.me/",
	"подработ",
	"заработ",
	"пиши",
	"набор",
	// Latin transliterations used to dodge Cyrillic-only filters.
	"podrabot",
	"zarabot",
	"pishi",
}

func keywordCategory(kw string) string {
	switch kw {
	case "http", "www.", ".com", ".ru", "t.me/":
		return CategoryLink
	case "подработ", "заработ", "podrabot", "zarabot":
		return CategoryWork
	case "пиши", "pishi":
		return CategorySolicitation
	case "набор":
		return CategoryRecruiting
	default:
		return CategorySolicitation
	}
}

// patternRules are compiled case-insensitively in catalog order.
var patternRules = []struct {
	category string
	pattern  string
}{
	// Links and domains.
	{CategoryLink, `https?://`},
	{CategoryLink, `www\.`},
	{CategoryLink, `\.(com|ru|org|net|info|bot|me|xyz|shop|online)/?`},
	{CategoryLink, `t\.me/`},

	// Contact channels: mentions, phone-number digit runs, messenger names.
	{CategoryContact, `@[a-zA-Z0-9_]{5,}`},
	{CategoryContact, `\+?\d{10,}`},
	{CategoryContact, `контакт`},
	{CategoryContact, `телефон`},
	{CategoryContact, `whatsapp`},
	{CategoryContact, `вайбер`},
	{CategoryContact, `viber`},
	{CategoryContact, `telegram`},

	// Call-to-action phrasing.
	{CategorySolicitation, `пиши\s*в?\s*(лс|личку|личные|пм|pm|dm)`},
	{CategorySolicitation, `pishi\s*v?\s*(ls|lichku|pm|dm)`},
	{CategorySolicitation, `напиши`},
	{CategorySolicitation, `обращайся`},
	{CategorySolicitation, `обратитесь`},
	{CategorySolicitation, `свяжи(сь|тесь)`},
	{CategorySolicitation, `звони`},
	{CategorySolicitation, `звонок`},

	// Work and easy-money vocabulary.
	{CategoryWork, `подработк`},
	{CategoryWork, `заработ`},
	{CategoryWork, `podrabot`},
	{CategoryWork, `zarabot`},
	{CategoryWork, `ваканси`},
	{CategoryWork, `работ[аыу]`},
	{CategoryWork, `зарплат`},
	{CategoryWork, `доход`},
	{CategoryWork, `карьер`},
	{CategoryWork, `на\s+дому`},
	{CategoryWork, `удал[её]нн`},
	{CategoryWork, `удал[её]нк`},
	{CategoryWork, `легк(ий|ие|о)?\s+(заработок|деньги)`},
	{CategoryWork, `быстры[ей]?\s+деньги`},

	// Financial schemes and network marketing.
	{CategoryFinancial, `инвест`},
	{CategoryFinancial, `франшиз`},
	{CategoryFinancial, `крипт`},
	{CategoryFinancial, `биткоин`},
	{CategoryFinancial, `bitcoin`},
	{CategoryFinancial, `блокчейн`},
	{CategoryFinancial, `млм`},
	{CategoryFinancial, `сетевой\s+маркетинг`},

	// Money amounts and payout phrasing.
	{CategoryMoney, `\d\s*(000|к|k|тыс)`},
	{CategoryMoney, `на\s+руки`},
	{CategoryMoney, `выплат`},
	{CategoryMoney, `без\s+вложений`},
	{CategoryMoney, `без\s+опыта`},

	// Urgency and effortlessness bait.
	{CategoryUrgency, `за\s*(\d+|четыре|пару)\s*час`},
	{CategoryUrgency, `za\s*\d+\s*chas`},
	{CategoryUrgency, `за\s*день`},
	{CategoryUrgency, `несколько\s+дней`},
	{CategoryUrgency, `в\s+свободное\s+время`},
	{CategoryUrgency, `проще\s+простого`},

	// Recruiting posts.
	{CategoryRecruiting, `требу(е|ю)тся`},
	{CategoryRecruiting, `ищем`},
	{CategoryRecruiting, `нужны\s+люди`},
	{CategoryRecruiting, `набор.*(сотрудник|персонал|работник)`},
}
