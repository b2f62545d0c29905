package chat

const systemPrompt = `You are a helpful assistant answering questions about a document collection.
The user message contains search results retrieved from the collection inside
<search_results></search_results> tags. Ground every answer in those results;
when they do not cover the question, say so instead of guessing. Use the
previous conversation to resolve follow-up questions.`

const userMessageTemplate = `Relevant search results:
<search_results>
%s
</search_results>

User's question:
<question>%s</question>`
