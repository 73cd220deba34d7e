package prompt

import "strings"

const examplesIntro = "The following are some examples of conversations to cope with user request, replace those placeholders indicated by <> with contextual data.\n"

// example is one worked user/assistant exchange.
type example struct {
	user      string
	assistant string
}

func (e example) write(b *strings.Builder) {
	b.WriteString("User: " + e.user)
	b.WriteString("Assistant: " + e.assistant)
}

var routingExamples = []example{
	{
		user: "Can you create a <environment> for me?",
		assistant: "I will first analyze the available resources and let you know my design.\n" +
			"{'commandType': 'environment', 'request': 'create a <environment>', 'resource': true, 'size': true, 'clearEnv': true}\n",
	},
	{
		user: "Remove everything.",
		assistant: "I will remove all the created objects in the scene.\n" +
			"{'commandType': 'environment', 'clearEnv': true}\n",
	},
	{
		user: "Can you add three <object> to the scene?",
		assistant: "I will first analyze the available resources and try to add those objects.\n" +
			"{'commandType': 'environment', 'request': 'add three <object> to the scene', 'resource': true, 'scene': true, 'position': true, 'size': true}\n",
	},
	{
		user: "Change the color of the <object> to cyan.",
		assistant: "Let me check the object in the environment.\n" +
			"{'commandType': 'animation', 'request': 'change the color of the <object> to cyan', 'scene': true, 'robot': true}\n",
	},
	{
		user: "Keep your eyes on the <object>.",
		assistant: "Let me analyze the request.\n" +
			"{'commandType': 'animation', 'request': 'Keep the robot eyes on the <object>', 'scene': true, 'position': true}\n",
	},
	{
		user: "Can you hand the <object> to me?",
		assistant: "Let me check the object in the environment.\n" +
			"{'commandType': 'animation', 'request': 'bring the <object> to the user', 'robot': true, 'scene': true, 'user': true, 'position': true}\n",
	},
	{
		user: "Can you create a rotating <object>?",
		assistant: "Let me analyze the request.\n" +
			"{'commandType': 'environment', 'request': 'add a <object> to the scene', 'resource': true, 'scene': true, 'position': true, 'size': true}\n" +
			"{'commandType': 'animation', 'request': 'let the <object> be rotating', 'scene': true, 'robot': true}\n",
	},
	{
		user: "Stop the running <object>.",
		assistant: "Let me analyze the request.\n" +
			"{'commandType': 'animation', 'request': 'stop the running <object>', 'scene': true, 'robot': true, 'animationData': true}\n",
	},
	{
		user: "Can you create a <object> three times larger than usual?",
		assistant: "Let me analyze the request.\n" +
			"{'commandType': 'environment', 'request': 'add a <object> to the scene', 'resource': true, 'scene': true, 'position': true, 'size': true}\n" +
			"{'commandType': 'animation', 'request': 'let the <object> be three times larger', 'scene': true, 'robot': true, 'scale': true}\n",
	},
	{
		user: "Catch me the <object>.",
		assistant: "Let me analyze the request.\n" +
			"{'commandType': 'animation', 'request': 'let the robot catch the <object> and bring to the user position', 'scene': true, 'robot': true, 'user': true, 'position': true}\n",
	},
	{
		user: "Do you understand what I am writing/drawing?",
		assistant: "Let me analyze your writing/drawing.\n" +
			"{'commandType': 'MRinteraction', 'request': 'analyze the user writing on image', 'MRtype': 'recognition'} \n",
	},
	{
		user: "Can you convert my drawing to objects?",
		assistant: "Let me analyze your drawing.\n" +
			"{'commandType': 'MRinteraction', 'request': 'convert the user drawing to objects', 'MRtype': 'conversion'} \n",
	},
}

var environmentRules = []string{
	"Utilize the object whose property matches the context most appropriately when multiple objects satisfy the request.",
	"Estimate the space objects will occupy based on provided position and size. For example, when placing an object on a table, limit its position within the table's boundaries on the x and z axes.",
	"Generate correct 'prefabType' with prefabs resources or primitive shapes, not mixed with existing object names.",
	"Adjust the scale of objects to fit the scene based on their size; a scale of 1 refers to 1 meter for primitive shapes.",
	"Specify a 'parent' object if one object needs to be placed or based on another. Use 'localposition' to specify the relative position to the parent object.",
	"For real-world objects, use the UUID as the object name when serving as 'parent'. A localposition of (0,0,0) refers to the center of the object's up surface.",
	"When placing an object on another, use 'localposition' values close to (0,0,0) and adjust x and z values to avoid collisions. Slightly increase the y value to simulate a fall-down effect. y value in local position should always be positive when placing objects on another.",
	"Ensure the floor and ceiling are in layer 0, objects on the floor are in layer 1, and other objects are in layer 2. List objects on lower layers first.",
	"Create an empty object as the base and add other objects as its children for complex objects.",
	"For orientations, Axis (1,0,0) is right, (0,1,0) is up, and (0,0,1) is forward. Rotation (0 0 0) means facing the negative z-axis, and rotation (0 90 0) means facing the negative x-axis.",
	"Keep the layout tight and limit the number of objects to avoid complexity.",
	"Add {commandType: -1} to the end of your response to indicate the end of environment creation. No further explanations are needed.",
}

var environmentExamples = []example{
	{
		user: "Can you create a classroom for me?",
		assistant: "I will create a classroom using local resources.\n" +
			"'''\n" +
			"{'prefabType': 'Room', 'objectName': 'ClassRoom', 'layer': 0, 'position': '0 0 0', 'rotation': '0 0 0'}\n" +
			"{'prefabType': 'StudyDesk', 'objectName': 'StudyDesk1', 'layer': 1, 'localposition': '<number> <number> <number>', 'rotation': '<number> <number> <number>', 'parent': 'Room1'}\n" +
			"{'prefabType': 'OfficeChair', 'objectName': 'OfficeChair1', 'layer': 1, 'localposition': '<number> <number> <number>', 'rotation': '<number> <number> <number>', 'parent': 'Room1'}\n" +
			"{'prefabType': 'Pen black', 'objectName': 'PenBlack1', 'layer': 2, 'localposition': '<number> <number> <number>', 'rotation': '<number> <number> <number>', 'parent': 'StudyDesk1'}\n" +
			"{commandType: -1}'''",
	},
	{
		user: "Add some office supplies to the table.",
		assistant: "Sure.\n" +
			"'''\n" +
			"{'prefabType': 'Pen black', 'objectName': 'PenBlack1', 'layer': 2, 'localposition': '0.1 0.1 -0.1', 'rotation': '0 0 0', 'parent': '<objectname>'}\n" +
			"{'prefabType': 'Calculator', 'objectName': 'Calculator1', 'layer': 2, 'localposition': '-0.1 0.1 0.1', 'rotation': '0 0 0', 'parent': '<objectname>'}\n" +
			"{commandType: -1}'''",
	},
	{
		user: "Add a cube to the scene.",
		assistant: "No problem.\n" +
			"'''\n" +
			"{'prefabType': 'cube', 'objectName': 'Cube1', 'layer': 1, 'position': '<number> <number> <number>', 'rotation': '<number> <number> <number>', 'scale': '<number> <number> <number>'}\n" +
			"{commandType: -1}'''",
	},
	{
		user: "Add a small car to the scene using primitive shapes.",
		assistant: "I will add a car to the scene using primitive shapes.\n" +
			"'''\n" +
			"{'prefabType': 'empty', 'objectName': 'Car', 'layer': 2, 'position': '<number> <number> <number>', 'rotation': '<number> <number> <number>'}\n" +
			"{'prefabType': 'cube', 'objectName': 'CarBody', 'layer': 2, 'localposition': '<number> <number> <number>', 'rotation': '<number> <number> <number>', 'scale': '<number> <number> <number>', 'parent': 'Car'}\n" +
			wheel("CarFrontLeftWheel") +
			wheel("CarFrontRightWheel") +
			wheel("CarBackLeftWheel") +
			wheel("CarBackRightWheel") +
			"{commandType: -1}'''",
	},
}

func wheel(name string) string {
	return "{'prefabType': 'cylinder', 'objectName': '" + name + "', 'layer': 2, 'localposition': '<number> <number> <number>', 'rotation': '<number> <number> <number>', 'scale': '<number> <number> <number>', 'color': '<number> <number> <number>', 'parent': 'Car'}\n"
}

const animationRules = "If an object partially meets the description provided by the user, issue the necessary command to fulfill the user's request as closely as possible.\n" +
	"If there are multiple objects that satisfy the description to some extent, select the one that matches most given the contexts.\n" +
	"If no object closely or partially matches the user's request, inform the user of this with a brief sentence. No more detailed explanation." +
	"For real-world objects and the user's hands, use the uuid as the object name when serving as 'target'. \n" +
	"Your response need to include specific JSON data following the JSON schema: \n"

const animationFormat = "Note that Axis (1,0,0) is right direction, (0,1,0) is up direction, (0,0,1) is forward direction.\n" +
	"Always start with a 'looktowards' action to face the object for each request. \n" +
	"Remember to use 'looktowards' before each 'movetowards' action when moving the robot itself to mimic a natual animation. \n" +
	"The movement can be classified into two cases: directly move to the target position with a random direction or rotate towards the target position then move in forward direction (always positive values '0 0 <number>'). Select the one which you think is more natural.\n" +
	"If you find there is an existing animation similar to the user's request, stop the existing animation and start the new one.\n" +
	"Answer in the fixed format.\n" +
	"'''\n{'action': 'actionName', 'object': 'object name', 'id': 'animation name', ...}\n{...}'''\n" +
	"You may have one or more of actions.\n" +
	"Make sure following those format when returning the actions and no comma between numbers.\n" +
	"Try to avoid the obstacles from the object list and make sure the position and orientation are correct. \n" +
	"First think about the categories and orders of animations required, then generate the data. Give a very brief description on what you will do before JSON data."

const lookAtObject = "{'action': 'looktowards', 'object': 'Robot', 'target': '<objectName>', 'id': 'lookTowards<objectName>'}\n"

var animationScaleExample = example{
	user: "Make the <objectName> two times larger.",
	assistant: "Sure. I will make it bigger.\n" +
		"'''\n" +
		lookAtObject +
		"{'action': 'scale', 'object': '<objectName>', 'scale': '<number> <number> <number>', 'id': 'scaleTableTwoTimesLarger', 'time': <number>}\n" +
		"'''\n",
}

var animationSceneExamples = []example{
	{
		user: "Keep your eyes on the '<objectName>'.",
		assistant: "Sure. I will create the animation 'gazing<objectName>'.\n" +
			"'''\n" +
			lookAtObject +
			"{'action': 'gazing', 'object': 'Robot', 'target': '<objectName>', 'id': 'gazing<objectName>'}\n" +
			"'''\n",
	},
	{
		user: "Let the '<objectName>' rotate 180 degrees.",
		assistant: "Sure. I will let it rotate towards the target orientation.\n" +
			"'''\n" +
			lookAtObject +
			"{'action': 'selfrotate', 'object': '<objectName>', 'axis': '<number> <number> <number>', 'speedRot': <number>, 'time': <number>, 'id': 'rotating<objectName>180'}\n" +
			"'''\n",
	},
	{
		user: "Let the '<objectName>' be rotating around my right index finger.",
		assistant: "Sure. I will let it be rotating.\n" +
			"'''\n" +
			"{'action': 'looktowards', 'object': 'Robot', 'target': '<fingerUUid>', 'id': 'lookTowardsRightIndexFinger'}\n" +
			"{'action': 'orbit', 'object': '<objectName>', 'target': '<fingerUUid>', 'speedRot': <number>, 'id': 'orbit<objectName>AroundRightIndexFinger'}\n" +
			"'''",
	},
	{
		user: "Move the '<objectName>' three meters away in its right direction.",
		assistant: "Sure.\n" +
			"'''\n" +
			lookAtObject +
			"{'action': 'movetowards', 'object': '<objectName>', 'localposition': '3 0 0', 'speedMov': <number>, 'id': 'move<objectName>Away'}\n" +
			"'''\n",
	},
	{
		user: "Move yourself three meters away on the right.",
		assistant: "Sure.\n" +
			"'''\n" +
			"{'action': 'looktowards', 'object': 'Robot', 'localposition': '3 0 0', 'id': 'lookTowards<objectName>'}\n" +
			"{'action': 'movetowards', 'object': '<objectName>', 'localposition': '0 0 3', 'speedMov': <number>, 'id': 'move<objectName>Away'}\n" +
			"'''\n" +
			"Note: In this example, after the rotation, the original right direction become the forward direction of the robot. So you should use '0 0 3' as local position instead of '3 0 0'.\n",
	},
	{
		user: "Move the '<objectName>' three meters away in my right direction.",
		assistant: "Sure.\n" +
			"'''\n" +
			lookAtObject +
			"{'action': 'movetowards', 'object': '<objectName>', 'localdirection': '1 0 0', 'distance': 3, 'target': 'CenterEyeAnchor', 'speedMov': <number>, 'id': 'move<objectName>Away'}\n" +
			"'''\n",
	},
	{
		user: "Where is the '<objectName>'?",
		assistant: "It is on my eye sight.\n" +
			"'''\n" +
			lookAtObject +
			"'''\n",
	},
}

var animationBringExample = example{
	user: "Bring me the '<objectName>'.",
	assistant: "No problem.\n" +
		"'''\n" +
		"{'action': 'looktowards', 'object': 'Robot', 'target': '<objectName>', 'id': 'rotateRobotToPos1'}\n" +
		"{'action': 'movetowards', 'object': 'Robot', 'target': '<objectName>', 'safebound': '<number>', 'id': 'moveRobotToPos1'}\n" +
		"{'action': 'catch', 'object': 'HandR', 'target': '<objectName>', 'safebound': '-1', 'id': 'useHandRToCatch<objectName>'}\n" +
		"{'action': 'movetowards', 'object': 'HandR', 'localposition': '<number> <number> <number>', 'id': 'moveHandRBack'}\n" +
		"{'action': 'looktowards', 'object': 'Robot', 'position': '<number> <number> <number>', 'id': 'rotateRobotToPlayer'}\n" +
		"{'action': 'movetowards', 'object': 'Robot', 'position': '<number> <number> <number>', 'id': 'moveRobotToPlayer'}\n" +
		"{'action': 'detach', 'object': '<objectName>', 'id': 'detach<objectName>FromHand'}\n" +
		"'''\n",
}

var animationStopExample = example{
	user: "Stop focusing on the '<objectName>'.",
	assistant: "Sure. I will stop the animation '<AnimationID>'.\n" +
		"'''\n" +
		lookAtObject +
		"{'action': 'stop', 'object': '<objectName>', 'id': '<AnimationID>'}\n" +
		"'''\n",
}

var conversionExample = example{
	user: "Can you convert my drawing to objects?",
	assistant: "I will convert your drawing to objects using primitive shapes.\n" +
		"'''\n" +
		"{'prefabType': '<prefabType>', 'objectName': '<objectName>', 'position': '<number> <number> <number>', 'rotation': '<number> <number> <number>', 'scale': '<number> <number> <number>'}\n" +
		"'''",
}
