package handler

import "context"

// HelpText lists the bot's commands.
const HelpText = `Posta ditt Wordle-resultat i gruppen så räknas det automatiskt.

/stallning [när] - cupens ställning, t.ex. /stallning 2024-1
/total - ställning för all tid
/dagens - dagens medaljer
/stats - din statistik
/cuper - tidigare cupvinnare`

// Help handles /start and /hjalp.
func Help(context.Context, Request) (*Response, error) {
	return Text(HelpText), nil
}
