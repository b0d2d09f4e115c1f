// Package render builds the outbound message shapes from record state.
// Nothing here touches the store or the transport.
package render

import (
	"fmt"
	"strings"

	"trash-notify/internal/weekly"
)

// Kind identifies an outbound message shape.
type Kind string

const (
	KindText Kind = "text"
	KindMenu Kind = "menu"
)

// Headlines shown above the settings table.
const (
	HeadlineFirstContact = "まずは予定を設定してね！"
	HeadlineIdle         = "お呼びですか？"
	HeadlineDone         = "設定が完了したよ！"
)

// Button labels.
const (
	LabelSetting = "通知設定"
	LabelGuide   = "使い方"
)

// FallbackText acknowledges a selection the bot does not understand.
const FallbackText = "ごめんね、その操作はわからないよ。"

// GuideText is the static help and privacy notice.
const GuideText = `ごみ捨て支援BOT

毎朝７時にごみ捨て通知が届きます。
通知内容は曜日ごとに任意に設定できます。

プライバシーについて
設定状態の保持のためLINEアカウントの識別IDを保存します。
友だち削除すると設定も削除されます。

ver.1.0 2021 yuuki1036`

// Choice is a button carrying an opaque payload back to the bot.
type Choice struct {
	Label string
	Data  string
}

// Message is a transport-neutral outbound message.
type Message struct {
	Kind    Kind
	AltText string
	Text    string
	Choices []Choice
}

// MainMenu renders headline, the weekly settings table and the two menu buttons.
func MainMenu(headline string, notes [weekly.Days]string) Message {
	return Message{
		Kind:    KindMenu,
		AltText: headline,
		Text:    headline + "\n" + SettingsTable(notes),
		Choices: []Choice{
			{Label: LabelSetting, Data: EncodeMode(ModeSetting)},
			{Label: LabelGuide, Data: EncodeMode(ModeGuide)},
		},
	}
}

// SettingsTable renders one "曜: note" line per weekday.
func SettingsTable(notes [weekly.Days]string) string {
	lines := make([]string, 0, weekly.Days)
	for i, name := range weekly.DayNames {
		lines = append(lines, fmt.Sprintf("%s: %s", name, notes[i]))
	}
	return strings.Join(lines, "\n")
}

// DayPrompt asks for the note of day, echoing its current value.
func DayPrompt(day int, current string) Message {
	name := weekly.DayNames[day%weekly.Days]
	now := "通知なし"
	if current != weekly.NoNote {
		now = "「" + current + "」"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s曜日の予定を入力してね。\n", name)
	fmt.Fprintf(&b, "現在の設定は%sです。\n", now)
	fmt.Fprintf(&b, "通知が不要な場合は「%s」と入力してね。\n", weekly.NoNote)
	fmt.Fprintf(&b, "%d文字を超える分は切り捨てられるよ。\n\n", weekly.MaxNoteLength)
	b.WriteString("例：燃えるごみ, ダンボールなど")
	return Text(b.String())
}

// Guide returns the help message.
func Guide() Message {
	return Text(GuideText)
}

// Fallback returns the generic acknowledgment for unknown selections.
func Fallback() Message {
	return Text(FallbackText)
}

// Push renders the morning notification for note.
func Push(note string) Message {
	return Text(fmt.Sprintf("おはようございます。\n今日は%sの日です。", note))
}

// Text wraps plain text.
func Text(text string) Message {
	return Message{Kind: KindText, Text: text}
}
