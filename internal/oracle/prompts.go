package oracle

import (
	"fmt"
	"strings"
)

// groupPromptTemplate asks the model to classify a group-mode message.
// Answers must be bare JSON matching the wire struct.
const groupPromptTemplate = `Sos un asistente que interpreta mensajes de un grupo de WhatsApp donde se registran gastos compartidos en Argentina.

Miembros del grupo: %s

Analizá el mensaje y respondé SOLO con un JSON, sin texto adicional ni markdown.

Tipos posibles:
- "expense": alguien registra un gasto compartido
- "payment": alguien le pagó a otro miembro o recibió plata de otro miembro
- "command": pide ver saldos, gastos o ayuda ("command": "balance" | "expenses" | "help")
- "unknown": nada de lo anterior (incluí "suggestion" con una ayuda breve)

Formato para expense:
{"type":"expense","amount":1500,"currency":"ARS","description":"cena","category":"food","splitAmong":[],"excludeFromSplit":[],"includesSender":true,"confidence":0.9}

Formato para payment:
{"type":"payment","amount":500,"currency":"ARS","direction":"paid","counterparty":"Juan","confidence":0.9}

Reglas:
- "currency" es uno de ARS, USD, EUR, BRL. Si no se menciona moneda es ARS.
- "splitAmong" son los nombres entre quienes se divide. Vacío significa todo el grupo.
- "excludeFromSplit" son nombres que NO participan ("menos Juan", "sin Ana").
- "includesSender" es false si quien escribe no participa del gasto ("yo no", "para ellos").
- "direction" es "received" si quien escribe cobró ("me pagó", "recibí"), si no "paid".
- "category" es una de: food, transport, accommodation, entertainment, general.
- "confidence" entre 0 y 1 según qué tan seguro estés.

Tené en cuenta el lunfardo argentino: "luca" = 1000 pesos, "gamba" = 100 pesos, "palo" = 1000000, "puse", "banqué", "garpé" = pagué, "birra" = cerveza, "morfi" = comida, "bondi" = colectivo.

Mensaje: %q`

// personalPromptTemplate asks the model to classify a personal-mode message.
const personalPromptTemplate = `Sos un asistente que interpreta mensajes de finanzas personales de un usuario argentino.

Categorías del usuario: %s

Analizá el mensaje y respondé SOLO con un JSON, sin texto adicional ni markdown.

Tipos posibles:
- "expense": el usuario registra un gasto propio
- "command": pide un resumen, sus gastos fijos o ayuda ("command": "summary" | "recurrents" | "help")
- "unknown": nada de lo anterior (incluí "suggestion" con una ayuda breve)

Formato para expense:
{"type":"expense","amount":2500,"currency":"ARS","description":"Farmacia","category":"Salud","confidence":0.9}

Reglas:
- "category" debe ser una de las categorías del usuario si alguna aplica.
- "currency" es uno de ARS, USD, EUR, BRL. Si no se menciona moneda es ARS.
- "confidence" entre 0 y 1.
- Lunfardo: "luca" = 1000 pesos, "gamba" = 100 pesos, "palo" = 1000000.

Mensaje: %q`

// receiptPrompt asks the model to read a bank transfer receipt.
const receiptPrompt = `Leé este comprobante de transferencia bancaria argentino y respondé SOLO con un JSON, sin texto adicional ni markdown:

{"amount":15000,"currency":"ARS","recipient":"Nombre del destinatario","cbu":"","alias":"","bank":"","date":"","reference":"","concept":"","confidence":0.9}

Cuidado: en Argentina el punto separa miles y la coma los decimales. "$15.000,50" son quince mil pesos con cincuenta centavos, no quince.`

// transcribePrompt asks for a literal voice note transcription.
const transcribePrompt = `Transcribí este audio en español rioplatense. Respondé SOLO con la transcripción literal, sin comentarios.`

// analyzePromptTemplate asks for a short spending analysis.
const analyzePromptTemplate = `Sos un asesor financiero personal argentino. A partir de este resumen de gastos, escribí un análisis breve (máximo 10 líneas) con observaciones concretas y una sugerencia de ahorro. Usá un tono cercano y español rioplatense. No uses markdown.

%s`

func groupPrompt(text string, roster []string) string {
	return fmt.Sprintf(groupPromptTemplate, strings.Join(roster, ", "), text)
}

func personalPrompt(text string, categories []string) string {
	return fmt.Sprintf(personalPromptTemplate, strings.Join(categories, ", "), text)
}

func analyzePrompt(summary string) string {
	return fmt.Sprintf(analyzePromptTemplate, summary)
}
