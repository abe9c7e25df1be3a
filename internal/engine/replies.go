package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gastobot/gastobot/internal/balance"
	"github.com/gastobot/gastobot/internal/mentions"
	"github.com/gastobot/gastobot/internal/parser"
)

// splitErrorReply turns a split-resolution failure into a user message. The
// names the user typed come back verbatim so they can correct the typo.
func splitErrorReply(err error) string {
	var unresolved *mentions.UnresolvedError
	if errors.As(err, &unresolved) {
		return fmt.Sprintf("No encontré a *%s* en el grupo, así que no registré nada. Fijate el nombre y mandalo de nuevo.",
			strings.Join(unresolved.Names, "*, *"))
	}
	return "Así no queda nadie entre quienes dividir, no registré nada."
}

// formatAmount renders a decimal the Argentine way: dots for thousands,
// comma for decimals, whole amounts without cents.
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, frac := parts[0], parts[1]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "00" {
		out += "," + frac
	}
	if neg {
		return "-$" + out
	}
	return "$" + out
}

const (
	replyNotRegistered = "No encontré tu cuenta. Registrate primero en la web y después escribime de nuevo."

	replyWelcomeGroups = "¡Hola! 👋 Soy el bot de gastos compartidos.\n\n" +
		"Registrá un gasto escribiendo el monto y una descripción, por ejemplo:\n" +
		"• *500 cena*\n" +
		"• *1200 nafta @Juan @Ana*\n" +
		"• *le pagué 500 a @Juan*\n\n" +
		"Escribí */ayuda* para ver todos los comandos."

	replyWelcomePersonal = "¡Hola! 👋 Soy tu asistente de finanzas personales.\n\n" +
		"Registrá un gasto escribiendo por ejemplo:\n" +
		"• *$1500 almuerzo*\n" +
		"• *$500 nafta #auto*\n\n" +
		"También podés mandarme un comprobante de transferencia o un audio.\n" +
		"Escribí *ayuda* para ver todo lo que puedo hacer."

	replyGroupHelp = "Comandos disponibles:\n" +
		"• *<monto> <descripción>* registra un gasto (ej: 500 cena)\n" +
		"• *@menciones* para dividir entre algunos (ej: 300 taxi @Juan)\n" +
		"• *le pagué <monto> a @alguien* registra un pago\n" +
		"• */saldos* muestra los saldos del grupo\n" +
		"• */gastos* muestra los últimos gastos\n" +
		"• */deudas* sugiere cómo saldar cuentas\n" +
		"• */grupos* lista tus grupos\n" +
		"• */grupo <número>* cambia de grupo activo\n\n" +
		"Escribí *MODE FINANZAS* para pasar a tus finanzas personales."

	replyPersonalHelp = "Esto es lo que puedo hacer:\n" +
		"• *$<monto> <título>* registra un gasto (ej: $1500 almuerzo)\n" +
		"• Agregá *#categoría* o *d:descripción* si querés\n" +
		"• Mandame un *comprobante* de transferencia y lo registro\n" +
		"• Mandame un *audio* contándome el gasto\n" +
		"• *resumen* muestra tu mes\n" +
		"• *fijos* muestra tus gastos fijos\n" +
		"• *categorias* lista tus categorías\n" +
		"• *analisis* te da un análisis de tus gastos\n\n" +
		"Escribí *MODE GRUPOS* para pasar a gastos compartidos."

	replyNoGroups = "Todavía no estás en ningún grupo. Creá uno en la web y volvé a escribirme."

	replyUnparseable = "No entendí el mensaje 🤔\n" +
		"Probá con *<monto> <descripción>*, por ejemplo: *500 cena*\n" +
		"O escribí */ayuda* para ver los comandos."

	replyPersonalUnparseable = "No entendí el mensaje 🤔\n" +
		"Probá con *$<monto> <título>*, por ejemplo: *$1500 almuerzo*\n" +
		"O escribí *ayuda*."

	replyAmountNotPositive = "El monto tiene que ser mayor a cero."

	replySomethingBroke = "Algo salió mal de mi lado, no registré nada. Probá de nuevo en un rato. 🙏"

	replyDescriptionTooLong = "La descripción es demasiado larga, probá con algo más corto."

	replyExpenseCancelled = "Listo, no registré nada. ❌"

	replyModeGroups = "Listo, estás en modo *grupos*. 👥"

	replyModePersonal = "Listo, estás en modo *finanzas personales*. 💰"
)

// confirmationPrompt renders the yes/no question for a proposed expense.
func confirmationPrompt(description, category string, amount decimal.Decimal, originalAmount decimal.Decimal, originalCurrency string, splitNames []string) string {
	var b strings.Builder
	b.WriteString("¿Registro este gasto?\n\n")
	fmt.Fprintf(&b, "%s *%s* — %s\n", parser.CategoryEmoji(category), description, formatAmount(amount))
	if originalCurrency != "" && !originalAmount.IsZero() {
		fmt.Fprintf(&b, "(%s %s convertidos)\n", originalAmount.String(), originalCurrency)
	}
	if len(splitNames) > 0 {
		fmt.Fprintf(&b, "Dividido entre: %s\n", strings.Join(splitNames, ", "))
	}
	b.WriteString("\nRespondé *sí* para confirmar o *no* para cancelar.")
	return b.String()
}

// expenseCommitted renders the receipt for a stored group expense, naming
// everyone who shares it.
func expenseCommitted(description, category string, amount decimal.Decimal, splitNames []string) string {
	per := amount
	if len(splitNames) > 1 {
		per = amount.Div(decimal.NewFromInt(int64(len(splitNames))))
	}
	return fmt.Sprintf("%s Anotado: *%s* — %s\nDividido entre %s (%s cada uno) ✅",
		parser.CategoryEmoji(category), description, formatAmount(amount),
		strings.Join(splitNames, ", "), formatAmount(per))
}

// paymentCommitted renders the receipt for a stored payment.
func paymentCommitted(direction, counterpartyName string, amount decimal.Decimal) string {
	if direction == "received" {
		return fmt.Sprintf("Anotado: *%s* te pagó %s ✅", counterpartyName, formatAmount(amount))
	}
	return fmt.Sprintf("Anotado: le pagaste %s a *%s* ✅", formatAmount(amount), counterpartyName)
}

// paymentNotification tells the counterparty a payment involving them was
// recorded.
func paymentNotification(direction, senderName string, amount decimal.Decimal) string {
	if direction == "received" {
		return fmt.Sprintf("ℹ️ *%s* registró que le pagaste %s.", senderName, formatAmount(amount))
	}
	return fmt.Sprintf("ℹ️ *%s* registró que te pagó %s.", senderName, formatAmount(amount))
}

// balancesReply renders /saldos.
func balancesReply(groupName string, balances []balance.MemberBalance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Saldos de *%s*:\n\n", groupName)
	for _, mb := range balances {
		switch {
		case mb.Net.IsPositive():
			fmt.Fprintf(&b, "🟢 %s: le deben %s\n", mb.Name, formatAmount(mb.Net))
		case mb.Net.IsNegative():
			fmt.Fprintf(&b, "🔴 %s: debe %s\n", mb.Name, formatAmount(mb.Net.Neg()))
		default:
			fmt.Fprintf(&b, "⚪ %s: al día\n", mb.Name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// settlementsReply renders /deudas.
func settlementsReply(edges []balance.SettleEdge) string {
	if len(edges) == 0 {
		return "Están todos al día. 🎉"
	}
	var b strings.Builder
	b.WriteString("Para saldar cuentas:\n\n")
	for _, e := range edges {
		fmt.Fprintf(&b, "➡️ %s le paga %s a %s\n", e.FromName, formatAmount(e.Amount), e.ToName)
	}
	return strings.TrimRight(b.String(), "\n")
}

// groupListReply renders the numbered group list used both by /grupos and by
// the pick-a-group prompt.
func groupListReply(header string, names []string) string {
	var b strings.Builder
	b.WriteString(header + "\n\n")
	for i, name := range names {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	return strings.TrimRight(b.String(), "\n")
}
