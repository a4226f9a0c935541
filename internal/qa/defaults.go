package qa

import "maps"

var builtIn = map[string]string{
	"qual é o seu nome":             "Eu sou o assistente do projeto.",
	"qual seu nome":                 "Eu sou o assistente do projeto.",
	"como você está":                "Estou bem, obrigado por perguntar!",
	"como vc está":                  "Estou bem, obrigado por perguntar!",
	"o que você faz":                "Respondo perguntas sobre este projeto usando a documentação e o código.",
	"como você pode me ajudar":      "Posso explicar funcionalidades do projeto e indicar onde elas estão.",
	"o que você sabe fazer":         "Respondo perguntas pré-definidas e consulto o índice do projeto quando necessário.",
	"quem te criou":                 "Fui configurado pela equipe que mantém este projeto.",
	"onde você mora":                "Eu existo como um programa, então não tenho um lugar físico.",
	"quantos anos você tem":         "Não tenho idade como humanos; sou um programa de computador.",
	"me diga uma piada":             "Por que o programador foi ao médico? Porque tinha um bug!",
	"bom dia":                       "Bom dia! Como posso ajudar?",
	"boa tarde":                     "Boa tarde! Em que posso ajudar?",
	"boa noite":                     "Boa noite! Precisa de algo antes de descansar?",
	"obrigado":                      "De nada, estou aqui para ajudar!",
	"valeu":                         "Por nada!",
	"tchau":                         "Até mais!",
	"adeus":                         "Até logo, volte sempre!",
	"o que você pode fazer por mim": "Posso responder dúvidas sobre o projeto e sugerir próximas perguntas.",
	"como usar":                     "Digite uma pergunta e eu tentarei responder com base no projeto.",
	"qual é a data de hoje":         "Não tenho acesso ao relógio neste modo; verifique a data no seu sistema.",
	"que horas são":                 "Não consigo acessar o relógio agora; verifique o relógio do seu sistema.",
	"me ajude":                      "Diga qual é a sua dúvida e tentarei responder com os recursos que tenho.",
	"repita":                        "Claro, o que você quer que eu repita?",
}

// DefaultPairs returns a copy of the built-in question table.
func DefaultPairs() map[string]string {
	return maps.Clone(builtIn)
}
