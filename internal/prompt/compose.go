package prompt

import (
	"strconv"
	"strings"

	"github.com/SNeC-Lab-PSU/LLMER/internal/command"
)

const agentIntro = "You are a virtual agent in a Mixed Reality application. "

// Turn is a composed System turn and the User turn that follows it.
type Turn struct {
	System string
	User   string
}

// Composer renders the System turn for each kind of request.
type Composer struct {
	context *ContextBuilder
	history *History
}

// NewComposer constructs a composer over the given context builder and
// history. Either may be nil.
func NewComposer(context *ContextBuilder, history *History) *Composer {
	return &Composer{context: context, history: history}
}

// General composes the routing turn for a raw user request. The request is
// expected to be the newest history entry already.
func (c *Composer) General(request string) Turn {
	var b strings.Builder
	b.WriteString(agentIntro)
	b.WriteString("You are responsible to understand the user's request and provide responses in JSON format or plain texts.")
	b.WriteString("The following is the JSON schema for your response: \n")
	b.WriteString(mustSchema(SchemaRouting) + "\n")
	b.WriteString("Provide proper JSON data if the user's request falls into the description of provided command types. If the request is out of the scope of the description, provide plain texts.\n")
	b.WriteString("Try to decompose the complex request into a series of simple commands. Note a request is complex only when it needs multiple command types, otherwise, just keep the user's message as the request.\n")
	b.WriteString("If the user asks about something else not match the description of JSON schema, just return plain texts.\n")
	b.WriteString("Avoid using special characters in your responses except specified by the JSON data. \n")
	if prev := c.previous(); len(prev) > 0 {
		b.WriteString("The user may not clearly specify the object in the request, use the following previous " + strconv.Itoa(len(prev)) + " messages from the user to infer the target if ambiguous pronoun is used: \n")
		b.WriteString(strings.Join(prev, "\n") + "\n")
	}
	b.WriteString(examplesIntro)
	for _, ex := range routingExamples {
		ex.write(&b)
	}
	b.WriteString("User: Who are you?")
	b.WriteString("Assistant: I am a virtual agent in VR. \nI can interact with you and the environment.")
	return Turn{System: b.String(), User: request}
}

// Environment composes the construction turn.
func (c *Composer) Environment(request string, flags command.Flags) Turn {
	var b strings.Builder
	b.WriteString(agentIntro)
	b.WriteString("You are responsible for following the user's instruction to conduct various tasks.\n")
	b.WriteString(c.context.Build(flags))
	b.WriteString("When asked to create or add something to the environment, determine the required prefabs and their quantities. ")
	b.WriteString("If proper prefabs are unavailable, use primitive shapes to create the objects.")
	b.WriteString("Simply state you will use existing resources or primitive shapes instead of details in your response.\n")
	b.WriteString("Provide JSON data following this schema: \n")
	b.WriteString(mustSchema(SchemaEnvironment) + "\n")
	b.WriteString("Adhere to the following rules:\n")
	for i, rule := range environmentRules {
		b.WriteString(strconv.Itoa(i+1) + ". " + rule + "\n")
	}
	b.WriteString("The following are examples of conversations to handle user requests, replacing placeholders indicated by <> with contextual data.\n")
	for _, ex := range environmentExamples {
		ex.write(&b)
	}
	return Turn{System: b.String(), User: request}
}

// Animation composes the action turn. Examples are selected by the scene and
// size flags and by whether the request mentions bringing or catching.
func (c *Composer) Animation(request string, flags command.Flags) Turn {
	var b strings.Builder
	b.WriteString(agentIntro)
	b.WriteString("You are responsible for following the user's instruction to conduct various tasks.")
	b.WriteString("Be extremely careful for the following contextual information: \n{\n")
	b.WriteString(c.context.Build(flags) + "\n}\n")
	b.WriteString(animationRules)
	b.WriteString(mustSchema(SchemaAnimation) + "\n")
	b.WriteString(animationFormat)
	b.WriteString(examplesIntro)

	if flags.Scene {
		if flags.Size {
			animationScaleExample.write(&b)
		}
		for _, ex := range animationSceneExamples {
			ex.write(&b)
		}
	}
	lower := strings.ToLower(request)
	if strings.Contains(lower, "bring") || strings.Contains(lower, "catch") {
		animationBringExample.write(&b)
	}
	animationStopExample.write(&b)
	return Turn{System: b.String(), User: request}
}

// Recognition composes the turn that asks the backend to read a drawing.
// The image frame is sent between the two turns.
func (c *Composer) Recognition(request string) Turn {
	return Turn{
		System: agentIntro + "\nYou are responsible for understanding what the user is drawing or writing given this picture.",
		User:   request,
	}
}

// Conversion composes the turn that asks the backend to rebuild a drawing
// out of primitives near the agent.
func (c *Composer) Conversion(request string) Turn {
	var b strings.Builder
	b.WriteString(agentIntro + "\n")
	b.WriteString("You are responsible for converting the user's drawing or writing into a series of objects using primitive shapes.\n")
	b.WriteString("The following is the JSON schema you need to follow: \n")
	b.WriteString(mustSchema(SchemaConversion) + "\n")
	b.WriteString("Remember that scale 1 means the object is 1 meter. Limit the size of created objects to be visible by the user.\n")
	b.WriteString("Create objects near your position: " + c.context.AgentPosition().String() + "\n")
	b.WriteString("Briefly mention you will create objects using primitive shapes, then provide JSON data in correct format. No more explanation.")
	b.WriteString(examplesIntro)
	conversionExample.write(&b)
	return Turn{System: b.String(), User: request}
}

func (c *Composer) previous() []string {
	if c == nil {
		return nil
	}
	return c.history.Previous()
}
