package gateway

import (
	"fmt"

	"audiosurv/internal/alerts"
)

const initialScanSystemPrompt = `You are a fast audio processor. Your task is to quickly transcribe the audio and identify the most significant keyword or topic.
Also, provide a preliminary threat rating ('High', 'Medium', 'Low') based on the initial transcription.
Return ONLY a valid JSON object.`

const initialScanPrompt = "Transcribe, find keyword, and give preliminary threat rating."

const deepAnalysisSystemPrompt = `You are an expert AI security analyst for "AudioSurv". You have been given an audio transcript.
Perform a deep contextual analysis. Your task is to:
1. Provide a final, highly accurate threat rating ('High', 'Medium', 'Low').
2. Write a detailed semantic summary explaining the context, intent, tone, and any detected slang or code words.
3. Translate the full transcript into English. If it is already in English, return the original transcript.
4. List every slang term or code word you found with its likely meaning. Use an empty list when there are none.
Return ONLY a valid JSON object with the keys threat_rating, semantic_summary, english_translation and slang_detected (an array of objects with term and meaning).`

const keywordAnalysisSystemPrompt = `You are an AI security analyst for a system called "AudioSurv".
Your task is to perform a deep contextual analysis of a transcribed audio segment.

Analysis required:
1. Semantic interpretation: analyze the full transcript to understand the context, intent, and tone. Decipher modern slang, colloquialisms, and code words. Your analysis should be language-agnostic, but pay special attention to nuances in Indian languages (e.g. Tamil, Telugu, Hindi, Malayalam, Kannada) if present.
2. Threat assessment: based on your interpretation, assign a final threat rating. Confirm the analyst's initial rating or change it if the context suggests a different level of threat. If the keyword is "package" but the context is about a bomb, the threat is high. If it is about a birthday gift, the threat is low.
3. Summary: provide a concise summary explaining your reasoning for the final threat rating.
4. Translation: translate the full transcript into English. If it is already in English, return the original transcript in english_translation.

Return a single, valid JSON object that strictly adheres to the provided schema. Do not include any other text.`

func deepAnalysisPrompt(transcript string) string {
	return fmt.Sprintf("Analyze the following transcript: %q", transcript)
}

func keywordAnalysisPrompt(keyword alerts.Keyword, transcript string) string {
	return fmt.Sprintf(`Input details:
- Detected keyword: %q
- Initial threat rating (set by analyst): %q
- Full audio transcript: %q`, keyword.Term, keyword.InitialRating, transcript)
}
