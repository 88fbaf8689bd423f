package glyphs

// Key is a semantic leaderboard token. The set is fixed and known in
// advance; hydration pairs the reference message's decorative assets with
// OrderedKeys by position, so the order here is part of the contract with
// the pinned reference message.
type Key string

const (
	KeyBarChart        Key = "BAR_CHART"
	KeyBurst           Key = "BURST"
	KeyHeartOnFire     Key = "HEART_ON_FIRE"
	KeyCrown           Key = "CROWN"
	KeyFire            Key = "FIRE"
	KeyHighVoltage     Key = "HIGH_VOLTAGE"
	KeyGlowingStar     Key = "GLOWING_STAR"
	KeyChequeredFlag   Key = "CHEQUERED_FLAG"
	KeyTarget          Key = "TARGET"
	KeyDizzy           Key = "DIZZY"
	KeyBrain           Key = "BRAIN"
	KeyLion            Key = "LION"
	KeyWing            Key = "WING"
	KeyThread          Key = "THREAD"
	KeyShield          Key = "SHIELD"
	KeyMoon            Key = "MOON"
	KeyRocket          Key = "ROCKET"
	KeySparkles        Key = "SPARKLES"
	KeyGemStone        Key = "GEM_STONE"
	KeyCalendar        Key = "CALENDAR"
	KeyTearOffCalendar Key = "TEAR_OFF_CALENDAR"
	KeySpiralCalendar  Key = "SPIRAL_CALENDAR"
	KeyFlexedBiceps    Key = "FLEXED_BICEPS"
	KeyCheckMark       Key = "CHECK_MARK"
	KeySleepingFace    Key = "SLEEPING_FACE"
	KeyMedal1          Key = "MEDAL_1"
	KeyMedal2          Key = "MEDAL_2"
	KeyMedal3          Key = "MEDAL_3"
	KeyKeycap1         Key = "KEYCAP_1"
	KeyKeycap2         Key = "KEYCAP_2"
	KeyKeycap3         Key = "KEYCAP_3"
	KeyKeycap4         Key = "KEYCAP_4"
	KeyKeycap5         Key = "KEYCAP_5"
	KeyKeycap6         Key = "KEYCAP_6"
	KeyKeycap7         Key = "KEYCAP_7"
	KeyKeycap8         Key = "KEYCAP_8"
	KeyKeycap9         Key = "KEYCAP_9"
	KeyKeycap10        Key = "KEYCAP_10"
)

// OrderedKeys fixes the pairing order for hydration.
var OrderedKeys = []Key{
	KeyBarChart, KeyBurst, KeyHeartOnFire, KeyCrown, KeyFire,
	KeyHighVoltage, KeyGlowingStar, KeyChequeredFlag, KeyTarget, KeyDizzy,
	KeyBrain, KeyLion, KeyWing, KeyThread, KeyShield,
	KeyMoon, KeyRocket, KeySparkles, KeyGemStone, KeyCalendar,
	KeyTearOffCalendar, KeySpiralCalendar, KeyFlexedBiceps, KeyCheckMark, KeySleepingFace,
	KeyMedal1, KeyMedal2, KeyMedal3,
	KeyKeycap1, KeyKeycap2, KeyKeycap3, KeyKeycap4, KeyKeycap5,
	KeyKeycap6, KeyKeycap7, KeyKeycap8, KeyKeycap9, KeyKeycap10,
}

// defaultGlyphs is the bottom resolution tier: plain Unicode that is always
// available no matter what happens to the premium assets.
var defaultGlyphs = map[Key]string{
	KeyBarChart:        "📊",
	KeyBurst:           "💥",
	KeyHeartOnFire:     "❤️‍🔥",
	KeyCrown:           "👑",
	KeyFire:            "🔥",
	KeyHighVoltage:     "⚡",
	KeyGlowingStar:     "🌟",
	KeyChequeredFlag:   "🏁",
	KeyTarget:          "🎯",
	KeyDizzy:           "💫",
	KeyBrain:           "🧠",
	KeyLion:            "🦁",
	KeyWing:            "🪽",
	KeyThread:          "🧵",
	KeyShield:          "🛡️",
	KeyMoon:            "🌙",
	KeyRocket:          "🚀",
	KeySparkles:        "✨",
	KeyGemStone:        "💎",
	KeyCalendar:        "📅",
	KeyTearOffCalendar: "📆",
	KeySpiralCalendar:  "🗓️",
	KeyFlexedBiceps:    "💪",
	KeyCheckMark:       "✅",
	KeySleepingFace:    "😴",
	KeyMedal1:          "🥇",
	KeyMedal2:          "🥈",
	KeyMedal3:          "🥉",
	KeyKeycap1:         "1️⃣",
	KeyKeycap2:         "2️⃣",
	KeyKeycap3:         "3️⃣",
	KeyKeycap4:         "4️⃣",
	KeyKeycap5:         "5️⃣",
	KeyKeycap6:         "6️⃣",
	KeyKeycap7:         "7️⃣",
	KeyKeycap8:         "8️⃣",
	KeyKeycap9:         "9️⃣",
	KeyKeycap10:        "🔟",
}

// DefaultGlyph returns the bottom-tier glyph for key, empty for unknown keys.
func DefaultGlyph(key Key) string {
	return defaultGlyphs[key]
}
