package prompts

const (
	gradingInputTmpl = "[question]\n{{.Question}}\n[/question] \n" +
		"[answer]\n{{.Answer}}\n[/answer] \n" +
		"{{if .WithRef}}[correct_answer]\n{{.CorrectAnswer}}\n[/correct_answer] \n{{end}}" +
		"[max_score] {{.MaxScore}} [/max_score] \n"

	shotTmpl = "{{.InputWord}}:\n" +
		"{{.Input}}" +
		"{{.OutputWord}}:\n" +
		"[grade] {{.GoldGrade}} [/grade]\n\n"
)

type language struct {
	stackFigures   string
	courseMaterial string
	solve          string

	gradingWithRef    string
	gradingWithoutRef string
	refPlaceholder    string
	shotIntro         string
	inputWord         string
	outputWord        string
}

var languages = map[string]language{
	"en": {
		stackFigures: "Note that the single input figure could contain multiple figures stacked vertically. ",
		courseMaterial: "Additionally, you will be provided with some course materials (can be found in 'Context'). " +
			"You can use that additional context to answer the question if it is helpful. " +
			"If it is not helpful, you don't have to use it. ",
		solve: "You are a university student. Please answer the following JSON-formatted exam question. " +
			"The subquestions (if any) are indexed. " +
			"The provided figures (if any) each contains its path at the bottom, " +
			"which matches the path provided in the JSON. {{.Extra}}" +
			"Please give the answers to the question and subquestions that were asked, " +
			"and index them accordingly in your output. " +
			"You do not have to provide your output in the JSON format. " +
			"If you are asked to draw on the figure, then describe with words how you would draw it. " +
			"Please provide all answers in English. " +
			"Here is the question: \n",

		gradingWithRef:    "exam question, examinee's answer, correct answer and the maximum possible score",
		gradingWithoutRef: "exam question, answer and the maximum possible score",
		refPlaceholder:    "[correct_answer] <correct_answer> [/correct_answer] \n",
		shotIntro:         "Below you are provided with example on how to perform the grading:\n",
		inputWord:         "Input",
		outputWord:        "Output",
	},
	"de": {
		stackFigures: "Beachten Sie, dass die einzelne Eingabe Figur mehrere vertikal gestapelte Figuren enthalten kann. ",
		courseMaterial: "Zusätzlich wird Ihnen Kursmaterial zur Verfügung gestellt (zu finden unter 'Context'). " +
			"Sie können diesen zusätzlichen Kontext zur Beantwortung der Frage nutzen, wenn er hilfreich ist und einen Bezug zur Frage hat. " +
			"Wenn nicht, müssen Sie ihn nicht verwenden. ",
		solve: "Sie sind Student. Bitte beantworten Sie die folgende JSON-formatierte Prüfungsfrage. " +
			"Die Unterfragen (falls vorhanden) sind indiziert. " +
			"Die bereitgestellten Abbildungen (falls vorhanden) enthalten jeweils unten ihren Pfad, " +
			"der mit dem im JSON bereitgestellten Pfad übereinstimmt. {{.Extra}}" +
			"Bitte geben Sie die Antworten auf die gestellten Fragen " +
			"und Unterfragen an und indizieren Sie diese in Ihrer Ausgabe entsprechend. " +
			"Sie müssen Ihre Ausgabe nicht im JSON-Format bereitstellen. " +
			"Wenn Sie aufgefordert werden, auf der Figur zu zeichnen, beschreiben Sie mit Worten, wie Sie sie zeichnen würden. " +
			"Bitte geben Sie alle Antworten auf Deutsch an. Hier ist die Frage: \n",

		gradingWithRef:    "Die Prüfungsfrage, die Antwort des Prüflings, die richtige Antwort und die maximal mögliche Punktzahl",
		gradingWithoutRef: "Die Prüfungsfrage, die Antwort und die maximal mögliche Punktzahl",
		refPlaceholder:    "[correct_answer] <korrekteAntwort> [/correct_answer] \n",
		shotIntro:         "Nachfolgend finden Sie ein Beispiel für die Durchführung der Benotung:\n",
		inputWord:         "Eingabe",
		outputWord:        "Ausgabe",
	},
}

var gradingTmpl = map[string]string{
	"en": "You are a university professor. Please grade the following exam question. " +
		"The {{.InputList}} are provided in the format:\n" +
		"[question] <exam_question> [/question] \n" +
		"[answer] <answer> [/answer] \n" +
		"{{.RefPlaceholder}}" +
		"[max_score] <max_score> [/max_score] \n" +
		"The question is provided in JSON format, but the answer can be freeform text. " +
		"The provided figures in the question (if any) each contains its path at the bottom, " +
		"which matches the path provided in the JSON. {{.Extra}}The answer is text-only. " +
		"If the question asks to draw on the figure, then the answer should contain text description on how the drawing should be." +
		"Please provide the grade between [0, <max_score>]. Please provide the reasoning for your grade. " +
		"Please provide your output in the format: \n" +
		"[reason] <reasoning> [/reason] \n" +
		"[grade] <grade> [/grade] \n" +
		"{{.Shots}}" +
		"Here is your input: \n",
	"de": "Sie sind Universitätsprofessor. Bitte bewerten Sie die folgende Prüfungsfrage. " +
		"{{.InputList}} werden im Format bereitgestellt:\n" +
		"[question] <Prüfungsfrage> [/question] \n" +
		"[answer] <Antwort> [/answer] \n" +
		"{{.RefPlaceholder}}" +
		"[max_score] <maxPunkt> [/max_score] \n" +
		"Die Frage wird im JSON-Format bereitgestellt, die Antwort kann jedoch Freiformtext sein. " +
		"Die bereitgestellten Abbildungen in der Frage (falls vorhanden) enthalten jeweils unten ihren Pfad, " +
		"der mit dem im JSON bereitgestellten Pfad übereinstimmt. {{.Extra}}Die Antwort ist nur Text. " +
		"Wenn es sich bei der Frage darum handelt, auf der Abbildung zu zeichnen, sollte die Antwort eine Textbeschreibung darüber enthalten, wie die Zeichnung aussehen soll." +
		"Bitte geben Sie die Note zwischen [0, <maxPunkt>] an. Bitte begründen Sie Ihre Note. " +
		"Bitte geben Sie Ihre Ausgabe im Format an: \n" +
		"[reason] <Grundsatz> [/reason] \n" +
		"[grade] <Note> [/grade] \n" +
		"{{.Shots}}" +
		"Hier ist Ihre Eingabe: \n",
}
