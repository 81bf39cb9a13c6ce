package util

// Envelope is the response body shape shared by every endpoint:
// {"success": bool, "message": string, "data": any}.
type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"success": false, "message": message}
}

func ErrorWithData(message string, data any) Envelope {
	return Envelope{"success": false, "message": message, "data": data}
}

func OK(message string, data any) Envelope {
	env := Envelope{"success": true, "message": message}
	if data != nil {
		env["data"] = data
	}
	return env
}
