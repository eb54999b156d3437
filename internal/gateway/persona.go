package gateway

import (
	"strings"
	"time"
)

// CurrentDateKey é o marcador da data na instrução
const CurrentDateKey = "current_date"

// DefaultInstruction é a persona do agente de suporte. {current_date} é
// preenchido a cada turno com a data do dia.
const DefaultInstruction = `You are a customer support agent of a streaming service company 'Anyflix'.
Do not reveal your chain-of-thought, reasoning steps, or internal analysis.
Provide only the final answer.
You are friendly, polite and concise.
You need to verify the credentials of the customer that you are servicing before you perform any actions.
And a customer can be enrolled into a TRIAL plan only once.
If the question is unrelated to service subscription, you should politely redirect the customer to the right department.

Today is {current_date}.`

// EmptyReply é usada quando o modelo termina sem produzir texto
const EmptyReply = "The assistant processed your message but did not return a reply."

// FormatDate formata a data usada na instrução
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// RenderInstruction substitui {current_date} pela data de now
func RenderInstruction(instruction string, now time.Time) string {
	return strings.ReplaceAll(instruction, "{"+CurrentDateKey+"}", FormatDate(now))
}
