package services

// Fixed instruction templates for the pipeline's three model calls.

// summaryPromptTemplate is parameterized by fragment kind and raw content.
const summaryPromptTemplate = `Summarize the following %s:
%s`

// imageSystemPrompt frames the assistant's domain expertise for vision calls.
const imageSystemPrompt = `You are a bot that is good at analyzing images related to the medical field.`

// imageUserPrompt is the fixed instruction sent alongside the inline image.
const imageUserPrompt = `Describe the contents of this image.`

// answerPromptTemplate is parameterized by retrieved context and question.
// The refusal sentence is fixed; the model must answer only from context.
const answerPromptTemplate = `You are an expert in the medical field.
Answer the question based only on the following context, which can include text, images and tables:
%s
Question: %s
Don't answer if you are not sure and decline to answer and say "Sorry, I don't have much information about it."
Just return the helpful answer in as much as detailed possible.
Answer:`
